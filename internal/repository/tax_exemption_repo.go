package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxExemptionRepository interface {
	Create(ctx context.Context, exemption *model.TaxExemption) error
	Update(ctx context.Context, exemption *model.TaxExemption) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxExemption, error)
	FindByCertificate(ctx context.Context, certificateNumber string) (*model.TaxExemption, error)
	List(ctx context.Context, status model.ExemptionStatus, page, limit int) ([]model.TaxExemption, int64, error)
	ListApprovedFor(ctx context.Context, customerID *uuid.UUID, certificateNumber string) ([]model.TaxExemption, error)
}

type taxExemptionRepository struct {
	db *gorm.DB
}

func NewTaxExemptionRepository(db *gorm.DB) TaxExemptionRepository {
	return &taxExemptionRepository{db: db}
}

func (r *taxExemptionRepository) Create(ctx context.Context, exemption *model.TaxExemption) error {
	return GetDB(ctx, r.db).Create(exemption).Error
}

func (r *taxExemptionRepository) Update(ctx context.Context, exemption *model.TaxExemption) error {
	return GetDB(ctx, r.db).Save(exemption).Error
}

func (r *taxExemptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxExemption{}).Error
}

func (r *taxExemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxExemption, error) {
	var exemption model.TaxExemption
	if err := GetDB(ctx, r.db).Preload("Customer").First(&exemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &exemption, nil
}

func (r *taxExemptionRepository) FindByCertificate(ctx context.Context, certificateNumber string) (*model.TaxExemption, error) {
	var exemption model.TaxExemption
	if err := GetDB(ctx, r.db).Where("certificate_number = ?", certificateNumber).First(&exemption).Error; err != nil {
		return nil, err
	}
	return &exemption, nil
}

func (r *taxExemptionRepository) List(ctx context.Context, status model.ExemptionStatus, page, limit int) ([]model.TaxExemption, int64, error) {
	var exemptions []model.TaxExemption
	var total int64

	query := GetDB(ctx, r.db).Model(&model.TaxExemption{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Customer").Order("created_at desc").Offset(offset).Limit(limit).Find(&exemptions).Error; err != nil {
		return nil, 0, err
	}

	return exemptions, total, nil
}

// ListApprovedFor returns APPROVED active exemptions attached to the customer or
// matching the presented certificate number. Date-window checks happen in the
// calculation core against its reference time.
func (r *taxExemptionRepository) ListApprovedFor(ctx context.Context, customerID *uuid.UUID, certificateNumber string) ([]model.TaxExemption, error) {
	if customerID == nil && certificateNumber == "" {
		return nil, nil
	}

	query := GetDB(ctx, r.db).
		Where("status = ? AND is_active = ?", model.ExemptionApproved, true)

	switch {
	case customerID != nil && certificateNumber != "":
		query = query.Where("customer_id = ? OR certificate_number = ?", *customerID, certificateNumber)
	case customerID != nil:
		query = query.Where("customer_id = ?", *customerID)
	default:
		query = query.Where("certificate_number = ?", certificateNumber)
	}

	var exemptions []model.TaxExemption
	if err := query.Find(&exemptions).Error; err != nil {
		return nil, err
	}
	return exemptions, nil
}
