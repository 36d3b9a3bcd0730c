package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingZoneRepository interface {
	Create(ctx context.Context, zone *model.ShippingZone) error
	Update(ctx context.Context, zone *model.ShippingZone) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error)
	List(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error)
	ListActive(ctx context.Context) ([]model.ShippingZone, error)
}

type shippingZoneRepository struct {
	db *gorm.DB
}

func NewShippingZoneRepository(db *gorm.DB) ShippingZoneRepository {
	return &shippingZoneRepository{db: db}
}

func (r *shippingZoneRepository) Create(ctx context.Context, zone *model.ShippingZone) error {
	return GetDB(ctx, r.db).Create(zone).Error
}

func (r *shippingZoneRepository) Update(ctx context.Context, zone *model.ShippingZone) error {
	return GetDB(ctx, r.db).Save(zone).Error
}

func (r *shippingZoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingZone{}).Error
}

func (r *shippingZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error) {
	var zone model.ShippingZone
	if err := GetDB(ctx, r.db).First(&zone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *shippingZoneRepository) List(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error) {
	var zones []model.ShippingZone
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ShippingZone{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("priority desc, created_at asc").Offset(offset).Limit(limit).Find(&zones).Error; err != nil {
		return nil, 0, err
	}

	return zones, total, nil
}

// ListActive returns active zones in matcher scan order (priority desc, oldest
// first as tie-break). The matcher takes the first zone that passes.
func (r *shippingZoneRepository) ListActive(ctx context.Context) ([]model.ShippingZone, error) {
	var zones []model.ShippingZone
	if err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("priority desc, created_at asc").
		Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}
