package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingMethodRepository interface {
	Create(ctx context.Context, method *model.ShippingMethod) error
	Update(ctx context.Context, method *model.ShippingMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error)
	FindByCode(ctx context.Context, code string) (*model.ShippingMethod, error)
	List(ctx context.Context, page, limit int) ([]model.ShippingMethod, int64, error)
	ListActive(ctx context.Context) ([]model.ShippingMethod, error)
}

type shippingMethodRepository struct {
	db *gorm.DB
}

func NewShippingMethodRepository(db *gorm.DB) ShippingMethodRepository {
	return &shippingMethodRepository{db: db}
}

func (r *shippingMethodRepository) Create(ctx context.Context, method *model.ShippingMethod) error {
	return GetDB(ctx, r.db).Create(method).Error
}

func (r *shippingMethodRepository) Update(ctx context.Context, method *model.ShippingMethod) error {
	return GetDB(ctx, r.db).Save(method).Error
}

func (r *shippingMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingMethod{}).Error
}

func (r *shippingMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	if err := GetDB(ctx, r.db).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *shippingMethodRepository) FindByCode(ctx context.Context, code string) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *shippingMethodRepository) List(ctx context.Context, page, limit int) ([]model.ShippingMethod, int64, error) {
	var methods []model.ShippingMethod
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ShippingMethod{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at asc").Offset(offset).Limit(limit).Find(&methods).Error; err != nil {
		return nil, 0, err
	}

	return methods, total, nil
}

func (r *shippingMethodRepository) ListActive(ctx context.Context) ([]model.ShippingMethod, error) {
	var methods []model.ShippingMethod
	if err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}
