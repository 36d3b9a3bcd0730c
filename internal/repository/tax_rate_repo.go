package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRateRepository interface {
	Create(ctx context.Context, rate *model.TaxRate) error
	Update(ctx context.Context, rate *model.TaxRate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error)
	FindByCode(ctx context.Context, code string) (*model.TaxRate, error)
	List(ctx context.Context, country string, page, limit int) ([]model.TaxRate, int64, error)
	ListActiveByCountry(ctx context.Context, country string) ([]model.TaxRate, error)
}

type taxRateRepository struct {
	db *gorm.DB
}

func NewTaxRateRepository(db *gorm.DB) TaxRateRepository {
	return &taxRateRepository{db: db}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *model.TaxRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *taxRateRepository) Update(ctx context.Context, rate *model.TaxRate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *taxRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxRate{}).Error
}

func (r *taxRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error) {
	var rate model.TaxRate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *taxRateRepository) FindByCode(ctx context.Context, code string) (*model.TaxRate, error) {
	var rate model.TaxRate
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *taxRateRepository) List(ctx context.Context, country string, page, limit int) ([]model.TaxRate, int64, error) {
	var rates []model.TaxRate
	var total int64

	query := GetDB(ctx, r.db).Model(&model.TaxRate{})
	if country != "" {
		query = query.Where("country = ?", country)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("priority desc, rate desc").Offset(offset).Limit(limit).Find(&rates).Error; err != nil {
		return nil, 0, err
	}

	return rates, total, nil
}

// ListActiveByCountry returns all active rates for a country ordered by priority
// then rate descending. Finer address matching (state/city/postal wildcards)
// happens in the calculation core, not in SQL.
func (r *taxRateRepository) ListActiveByCountry(ctx context.Context, country string) ([]model.TaxRate, error) {
	var rates []model.TaxRate
	if err := GetDB(ctx, r.db).
		Where("country = ? AND is_active = ?", country, true).
		Order("priority desc, rate desc").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
