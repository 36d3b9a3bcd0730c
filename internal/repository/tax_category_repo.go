package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxCategoryRepository interface {
	Create(ctx context.Context, category *model.TaxCategory) error
	Update(ctx context.Context, category *model.TaxCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxCategory, error)
	FindByCode(ctx context.Context, code model.TaxCategoryCode) (*model.TaxCategory, error)
	ListAll(ctx context.Context) ([]model.TaxCategory, error)
}

type taxCategoryRepository struct {
	db *gorm.DB
}

func NewTaxCategoryRepository(db *gorm.DB) TaxCategoryRepository {
	return &taxCategoryRepository{db: db}
}

func (r *taxCategoryRepository) Create(ctx context.Context, category *model.TaxCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *taxCategoryRepository) Update(ctx context.Context, category *model.TaxCategory) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *taxCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxCategory{}).Error
}

func (r *taxCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxCategory, error) {
	var category model.TaxCategory
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *taxCategoryRepository) FindByCode(ctx context.Context, code model.TaxCategoryCode) (*model.TaxCategory, error) {
	var category model.TaxCategory
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *taxCategoryRepository) ListAll(ctx context.Context) ([]model.TaxCategory, error) {
	var categories []model.TaxCategory
	if err := GetDB(ctx, r.db).Order("code asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
