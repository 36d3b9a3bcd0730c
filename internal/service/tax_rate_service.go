package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRateRequest struct {
	Code              string           `json:"code" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	Type              string           `json:"type" binding:"required"`
	CalculationType   string           `json:"calculation_type" binding:"required"`
	Rate              decimal.Decimal  `json:"rate"`
	FixedAmount       decimal.Decimal  `json:"fixed_amount"`
	Country           string           `json:"country" binding:"required,len=2"`
	State             *string          `json:"state"`
	City              *string          `json:"city"`
	PostalCode        *string          `json:"postal_code"`
	MinimumAmount     decimal.Decimal  `json:"minimum_amount"`
	MaximumAmount     *decimal.Decimal `json:"maximum_amount"`
	IsShippingTaxable bool             `json:"is_shipping_taxable"`
	Priority          int              `json:"priority"`
	EffectiveFrom     string           `json:"effective_from"` // YYYY-MM-DD
	EffectiveTo       string           `json:"effective_to"`
}

type UpdateTaxRateRequest struct {
	Name              *string          `json:"name"`
	Type              *string          `json:"type"`
	CalculationType   *string          `json:"calculation_type"`
	Rate              *decimal.Decimal `json:"rate"`
	FixedAmount       *decimal.Decimal `json:"fixed_amount"`
	State             *string          `json:"state"`
	City              *string          `json:"city"`
	PostalCode        *string          `json:"postal_code"`
	MinimumAmount     *decimal.Decimal `json:"minimum_amount"`
	MaximumAmount     *decimal.Decimal `json:"maximum_amount"`
	IsShippingTaxable *bool            `json:"is_shipping_taxable"`
	Priority          *int             `json:"priority"`
	IsActive          *bool            `json:"is_active"`
	EffectiveFrom     *string          `json:"effective_from"`
	EffectiveTo       *string          `json:"effective_to"`
}

type CreateTaxCategoryRequest struct {
	Code        string          `json:"code" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	DefaultRate decimal.Decimal `json:"default_rate"`
	IsExempt    bool            `json:"is_exempt"`
}

type UpdateTaxCategoryRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	DefaultRate *decimal.Decimal `json:"default_rate"`
	IsExempt    *bool            `json:"is_exempt"`
	IsActive    *bool            `json:"is_active"`
}

// --- Interface ---

type TaxRateService interface {
	CreateRate(ctx context.Context, req CreateTaxRateRequest, userID string) (*model.TaxRate, error)
	UpdateRate(ctx context.Context, id string, req UpdateTaxRateRequest, userID string) (*model.TaxRate, error)
	DeleteRate(ctx context.Context, id string, userID string) error
	GetRate(ctx context.Context, id string) (*model.TaxRate, error)
	ListRates(ctx context.Context, country string, page, limit int) ([]model.TaxRate, int64, error)

	CreateCategory(ctx context.Context, req CreateTaxCategoryRequest, userID string) (*model.TaxCategory, error)
	UpdateCategory(ctx context.Context, id string, req UpdateTaxCategoryRequest, userID string) (*model.TaxCategory, error)
	DeleteCategory(ctx context.Context, id string, userID string) error
	ListCategories(ctx context.Context) ([]model.TaxCategory, error)
}

type taxRateService struct {
	rateRepo     repository.TaxRateRepository
	categoryRepo repository.TaxCategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     ConfigNotifier
}

func NewTaxRateService(
	rateRepo repository.TaxRateRepository,
	categoryRepo repository.TaxCategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ConfigNotifier,
) TaxRateService {
	return &taxRateService{
		rateRepo:     rateRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// --- Tax rates ---

func (s *taxRateService) CreateRate(ctx context.Context, req CreateTaxRateRequest, userID string) (*model.TaxRate, error) {
	if !model.ValidTaxType(model.TaxType(req.Type)) {
		return nil, fmt.Errorf("type must be one of: SALES, VAT, GST, HST, PST")
	}
	if !model.ValidTaxCalculationType(model.TaxCalculationType(req.CalculationType)) {
		return nil, fmt.Errorf("calculation_type must be one of: PERCENTAGE, FIXED_AMOUNT, COMPOUND")
	}
	if req.Rate.IsNegative() || req.FixedAmount.IsNegative() {
		return nil, fmt.Errorf("rate and fixed_amount must not be negative")
	}

	effectiveFrom, effectiveTo, err := parseDateWindow(req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	if existing, err := s.rateRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("a tax rate with code '%s' already exists", req.Code)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check rate code: %w", err)
	}

	rate := &model.TaxRate{
		Code:              req.Code,
		Name:              req.Name,
		Type:              model.TaxType(req.Type),
		CalculationType:   model.TaxCalculationType(req.CalculationType),
		Rate:              req.Rate,
		FixedAmount:       req.FixedAmount,
		Country:           req.Country,
		State:             req.State,
		City:              req.City,
		PostalCode:        req.PostalCode,
		MinimumAmount:     req.MinimumAmount,
		MaximumAmount:     req.MaximumAmount,
		IsShippingTaxable: req.IsShippingTaxable,
		Priority:          req.Priority,
		IsActive:          true,
		EffectiveFrom:     effectiveFrom,
		EffectiveTo:       effectiveTo,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Create(txCtx, rate); err != nil {
			return fmt.Errorf("failed to create tax rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateTaxRate, rate.ID.String(), rate.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_rate", rate.ID.String())
	return rate, nil
}

func (s *taxRateService) UpdateRate(ctx context.Context, id string, req UpdateTaxRateRequest, userID string) (*model.TaxRate, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate id")
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax rate not found")
		}
		return nil, fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	if req.Name != nil {
		rate.Name = *req.Name
	}
	if req.Type != nil {
		if !model.ValidTaxType(model.TaxType(*req.Type)) {
			return nil, fmt.Errorf("type must be one of: SALES, VAT, GST, HST, PST")
		}
		rate.Type = model.TaxType(*req.Type)
	}
	if req.CalculationType != nil {
		if !model.ValidTaxCalculationType(model.TaxCalculationType(*req.CalculationType)) {
			return nil, fmt.Errorf("calculation_type must be one of: PERCENTAGE, FIXED_AMOUNT, COMPOUND")
		}
		rate.CalculationType = model.TaxCalculationType(*req.CalculationType)
	}
	if req.Rate != nil {
		if req.Rate.IsNegative() {
			return nil, fmt.Errorf("rate must not be negative")
		}
		rate.Rate = *req.Rate
	}
	if req.FixedAmount != nil {
		rate.FixedAmount = *req.FixedAmount
	}
	if req.State != nil {
		rate.State = nilIfEmpty(req.State)
	}
	if req.City != nil {
		rate.City = nilIfEmpty(req.City)
	}
	if req.PostalCode != nil {
		rate.PostalCode = nilIfEmpty(req.PostalCode)
	}
	if req.MinimumAmount != nil {
		rate.MinimumAmount = *req.MinimumAmount
	}
	if req.MaximumAmount != nil {
		rate.MaximumAmount = req.MaximumAmount
	}
	if req.IsShippingTaxable != nil {
		rate.IsShippingTaxable = *req.IsShippingTaxable
	}
	if req.Priority != nil {
		rate.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}
	if req.EffectiveFrom != nil || req.EffectiveTo != nil {
		from := ""
		to := ""
		if req.EffectiveFrom != nil {
			from = *req.EffectiveFrom
		}
		if req.EffectiveTo != nil {
			to = *req.EffectiveTo
		}
		effectiveFrom, effectiveTo, err := parseDateWindow(from, to)
		if err != nil {
			return nil, err
		}
		if req.EffectiveFrom != nil {
			rate.EffectiveFrom = effectiveFrom
		}
		if req.EffectiveTo != nil {
			rate.EffectiveTo = effectiveTo
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Update(txCtx, rate); err != nil {
			return fmt.Errorf("failed to update tax rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateTaxRate, rate.ID.String(), rate.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_rate", rate.ID.String())
	return rate, nil
}

func (s *taxRateService) DeleteRate(ctx context.Context, id string, userID string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rate id")
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rate not found")
		}
		return fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Delete(txCtx, rateID); err != nil {
			return fmt.Errorf("failed to delete tax rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteTaxRate, id, rate.Code, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("tax_rate", id)
	return nil
}

func (s *taxRateService) GetRate(ctx context.Context, id string) (*model.TaxRate, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate id")
	}
	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax rate not found")
		}
		return nil, fmt.Errorf("failed to fetch tax rate: %w", err)
	}
	return rate, nil
}

func (s *taxRateService) ListRates(ctx context.Context, country string, page, limit int) ([]model.TaxRate, int64, error) {
	return s.rateRepo.List(ctx, country, page, limit)
}

// --- Tax categories ---

func (s *taxRateService) CreateCategory(ctx context.Context, req CreateTaxCategoryRequest, userID string) (*model.TaxCategory, error) {
	if existing, err := s.categoryRepo.FindByCode(ctx, model.TaxCategoryCode(req.Code)); err == nil && existing != nil {
		return nil, fmt.Errorf("a tax category with code '%s' already exists", req.Code)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check category code: %w", err)
	}

	category := &model.TaxCategory{
		Code:        model.TaxCategoryCode(req.Code),
		Name:        req.Name,
		Description: req.Description,
		DefaultRate: req.DefaultRate,
		IsExempt:    req.IsExempt,
		IsActive:    true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create tax category: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateTaxCategory, category.ID.String(), string(category.Code), req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_category", category.ID.String())
	return category, nil
}

func (s *taxRateService) UpdateCategory(ctx context.Context, id string, req UpdateTaxCategoryRequest, userID string) (*model.TaxCategory, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax category not found")
		}
		return nil, fmt.Errorf("failed to fetch tax category: %w", err)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.DefaultRate != nil {
		category.DefaultRate = *req.DefaultRate
	}
	if req.IsExempt != nil {
		category.IsExempt = *req.IsExempt
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Update(txCtx, category); err != nil {
			return fmt.Errorf("failed to update tax category: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateTaxCategory, category.ID.String(), string(category.Code), req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_category", category.ID.String())
	return category, nil
}

func (s *taxRateService) DeleteCategory(ctx context.Context, id string, userID string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax category not found")
		}
		return fmt.Errorf("failed to fetch tax category: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Delete(txCtx, categoryID); err != nil {
			return fmt.Errorf("failed to delete tax category: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteTaxCategory, id, string(category.Code), map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("tax_category", id)
	return nil
}

func (s *taxRateService) ListCategories(ctx context.Context) ([]model.TaxCategory, error) {
	return s.categoryRepo.ListAll(ctx)
}

// --- Helpers ---

func (s *taxRateService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if uid, err := uuid.Parse(userID); err == nil {
		entry.UserID = &uid
	}

	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		logger.Error("Failed to write audit log", err, map[string]interface{}{
			"action": action,
		})
		return err
	}
	return nil
}

// parseDateWindow parses optional YYYY-MM-DD bounds; empty strings mean open
func parseDateWindow(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid effective_from date format (expected YYYY-MM-DD): %w", err)
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid effective_to date format (expected YYYY-MM-DD): %w", err)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("effective_to must not be before effective_from")
	}
	return from, to, nil
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
