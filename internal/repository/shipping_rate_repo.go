package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingRateRepository interface {
	Create(ctx context.Context, rate *model.ShippingRate) error
	Update(ctx context.Context, rate *model.ShippingRate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error)
	FindByMethodAndZone(ctx context.Context, methodID, zoneID uuid.UUID) (*model.ShippingRate, error)
	List(ctx context.Context, zoneID *uuid.UUID, page, limit int) ([]model.ShippingRate, int64, error)
	ListActiveByZone(ctx context.Context, zoneID uuid.UUID) ([]model.ShippingRate, error)
}

type shippingRateRepository struct {
	db *gorm.DB
}

func NewShippingRateRepository(db *gorm.DB) ShippingRateRepository {
	return &shippingRateRepository{db: db}
}

func (r *shippingRateRepository) Create(ctx context.Context, rate *model.ShippingRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *shippingRateRepository) Update(ctx context.Context, rate *model.ShippingRate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *shippingRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingRate{}).Error
}

func (r *shippingRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	var rate model.ShippingRate
	if err := GetDB(ctx, r.db).Preload("Method").Preload("Zone").First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *shippingRateRepository) FindByMethodAndZone(ctx context.Context, methodID, zoneID uuid.UUID) (*model.ShippingRate, error) {
	var rate model.ShippingRate
	if err := GetDB(ctx, r.db).
		Where("method_id = ? AND zone_id = ? AND is_active = ?", methodID, zoneID, true).
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *shippingRateRepository) List(ctx context.Context, zoneID *uuid.UUID, page, limit int) ([]model.ShippingRate, int64, error) {
	var rates []model.ShippingRate
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ShippingRate{})
	if zoneID != nil {
		query = query.Where("zone_id = ?", *zoneID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Method").Preload("Zone").
		Order("created_at asc").Offset(offset).Limit(limit).Find(&rates).Error; err != nil {
		return nil, 0, err
	}

	return rates, total, nil
}

// ListActiveByZone returns every active rate row configured for a zone; the
// shipping calculator resolves per-method rows from this set in memory.
func (r *shippingRateRepository) ListActiveByZone(ctx context.Context, zoneID uuid.UUID) ([]model.ShippingRate, error) {
	var rates []model.ShippingRate
	if err := GetDB(ctx, r.db).
		Where("zone_id = ? AND is_active = ?", zoneID, true).
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
