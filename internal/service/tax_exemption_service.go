package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateExemptionRequest struct {
	CertificateNumber    string           `json:"certificate_number" binding:"required"`
	CustomerID           string           `json:"customer_id"`
	Reason               string           `json:"reason"`
	ApplicableTaxTypes   []string         `json:"applicable_tax_types"`
	ApplicableProducts   []string         `json:"applicable_products"`
	ApplicableCategories []string         `json:"applicable_categories"`
	ValidFrom            string           `json:"valid_from"` // YYYY-MM-DD
	ValidTo              string           `json:"valid_to"`
	MaxExemptAmount      *decimal.Decimal `json:"max_exempt_amount"`
}

type UpdateExemptionRequest struct {
	Reason               *string          `json:"reason"`
	ApplicableTaxTypes   *[]string        `json:"applicable_tax_types"`
	ApplicableProducts   *[]string        `json:"applicable_products"`
	ApplicableCategories *[]string        `json:"applicable_categories"`
	ValidFrom            *string          `json:"valid_from"`
	ValidTo              *string          `json:"valid_to"`
	MaxExemptAmount      *decimal.Decimal `json:"max_exempt_amount"`
	IsActive             *bool            `json:"is_active"`
}

type ExemptionFilter struct {
	Status string // PENDING, APPROVED, REJECTED, EXPIRED, SUSPENDED or empty
	Page   int
	Limit  int
}

type RejectExemptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Interface ---

// TaxExemptionService manages exemption certificates through their review
// workflow. Certificates are created PENDING; only an APPROVED certificate
// influences tax calculations.
type TaxExemptionService interface {
	Create(ctx context.Context, req CreateExemptionRequest, userID string) (*model.TaxExemption, error)
	Update(ctx context.Context, id string, req UpdateExemptionRequest, userID string) (*model.TaxExemption, error)
	Get(ctx context.Context, id string) (*model.TaxExemption, error)
	List(ctx context.Context, filter ExemptionFilter) ([]model.TaxExemption, int64, error)
	Approve(ctx context.Context, id string, userID string) (*model.TaxExemption, error)
	Reject(ctx context.Context, id string, userID string, reason string) (*model.TaxExemption, error)
	Suspend(ctx context.Context, id string, userID string) (*model.TaxExemption, error)
}

type taxExemptionService struct {
	exemptionRepo repository.TaxExemptionRepository
	customerRepo  repository.CustomerRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      ConfigNotifier
}

func NewTaxExemptionService(
	exemptionRepo repository.TaxExemptionRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ConfigNotifier,
) TaxExemptionService {
	return &taxExemptionService{
		exemptionRepo: exemptionRepo,
		customerRepo:  customerRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
	}
}

// --- Implementation ---

func (s *taxExemptionService) Create(ctx context.Context, req CreateExemptionRequest, userID string) (*model.TaxExemption, error) {
	if existing, err := s.exemptionRepo.FindByCertificate(ctx, req.CertificateNumber); err == nil && existing != nil {
		return nil, fmt.Errorf("an exemption with certificate '%s' already exists", req.CertificateNumber)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check certificate number: %w", err)
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id")
		}
		if _, err := s.customerRepo.FindByID(ctx, parsed); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("customer not found")
			}
			return nil, fmt.Errorf("failed to fetch customer: %w", err)
		}
		customerID = &parsed
	}

	validFrom, validTo, err := parseDateWindow(req.ValidFrom, req.ValidTo)
	if err != nil {
		return nil, err
	}

	exemption := &model.TaxExemption{
		CertificateNumber:    req.CertificateNumber,
		CustomerID:           customerID,
		Status:               model.ExemptionPending,
		Reason:               req.Reason,
		ApplicableTaxTypes:   req.ApplicableTaxTypes,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		ValidFrom:            validFrom,
		ValidTo:              validTo,
		MaxExemptAmount:      req.MaxExemptAmount,
		IsActive:             true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.exemptionRepo.Create(txCtx, exemption); err != nil {
			return fmt.Errorf("failed to create exemption: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateExemption, exemption.ID.String(), exemption.CertificateNumber, req)
	})
	if err != nil {
		return nil, err
	}

	return exemption, nil
}

func (s *taxExemptionService) Update(ctx context.Context, id string, req UpdateExemptionRequest, userID string) (*model.TaxExemption, error) {
	exemption, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Reason != nil {
		exemption.Reason = *req.Reason
	}
	if req.ApplicableTaxTypes != nil {
		exemption.ApplicableTaxTypes = *req.ApplicableTaxTypes
	}
	if req.ApplicableProducts != nil {
		exemption.ApplicableProducts = *req.ApplicableProducts
	}
	if req.ApplicableCategories != nil {
		exemption.ApplicableCategories = *req.ApplicableCategories
	}
	if req.ValidFrom != nil || req.ValidTo != nil {
		from := ""
		to := ""
		if req.ValidFrom != nil {
			from = *req.ValidFrom
		}
		if req.ValidTo != nil {
			to = *req.ValidTo
		}
		validFrom, validTo, err := parseDateWindow(from, to)
		if err != nil {
			return nil, err
		}
		if req.ValidFrom != nil {
			exemption.ValidFrom = validFrom
		}
		if req.ValidTo != nil {
			exemption.ValidTo = validTo
		}
	}
	if req.MaxExemptAmount != nil {
		exemption.MaxExemptAmount = req.MaxExemptAmount
	}
	if req.IsActive != nil {
		exemption.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.exemptionRepo.Update(txCtx, exemption); err != nil {
			return fmt.Errorf("failed to update exemption: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateExemption, exemption.ID.String(), exemption.CertificateNumber, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_exemption", exemption.ID.String())
	return exemption, nil
}

func (s *taxExemptionService) Get(ctx context.Context, id string) (*model.TaxExemption, error) {
	return s.findByID(ctx, id)
}

func (s *taxExemptionService) List(ctx context.Context, filter ExemptionFilter) ([]model.TaxExemption, int64, error) {
	if filter.Status != "" && !model.ValidExemptionStatus(model.ExemptionStatus(filter.Status)) {
		return nil, 0, fmt.Errorf("unknown exemption status '%s'", filter.Status)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.exemptionRepo.List(ctx, model.ExemptionStatus(filter.Status), filter.Page, filter.Limit)
}

func (s *taxExemptionService) Approve(ctx context.Context, id string, userID string) (*model.TaxExemption, error) {
	return s.decide(ctx, id, userID, model.ExemptionApproved, "")
}

func (s *taxExemptionService) Reject(ctx context.Context, id string, userID string, reason string) (*model.TaxExemption, error) {
	if reason == "" {
		return nil, fmt.Errorf("a rejection reason is required")
	}
	return s.decide(ctx, id, userID, model.ExemptionRejected, reason)
}

// Suspend takes an APPROVED certificate out of effect without discarding it
func (s *taxExemptionService) Suspend(ctx context.Context, id string, userID string) (*model.TaxExemption, error) {
	exemption, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exemption.Status != model.ExemptionApproved {
		return nil, fmt.Errorf("only an approved exemption can be suspended (current status: %s)", exemption.Status)
	}

	deciderID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id")
	}

	now := time.Now()
	exemption.Status = model.ExemptionSuspended
	exemption.DecidedBy = &deciderID
	exemption.DecidedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.exemptionRepo.Update(txCtx, exemption); err != nil {
			return fmt.Errorf("failed to suspend exemption: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionSuspendExemption, exemption.ID.String(), exemption.CertificateNumber, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_exemption", exemption.ID.String())
	return exemption, nil
}

// decide moves a PENDING certificate to APPROVED or REJECTED
func (s *taxExemptionService) decide(ctx context.Context, id, userID string, status model.ExemptionStatus, reason string) (*model.TaxExemption, error) {
	exemption, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exemption.Status != model.ExemptionPending {
		return nil, fmt.Errorf("exemption is already %s", exemption.Status)
	}

	deciderID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id")
	}

	now := time.Now()
	exemption.Status = status
	exemption.DecidedBy = &deciderID
	exemption.DecidedAt = &now
	exemption.RejectionReason = reason

	action := model.ActionApproveExemption
	if status == model.ExemptionRejected {
		action = model.ActionRejectExemption
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.exemptionRepo.Update(txCtx, exemption); err != nil {
			return fmt.Errorf("failed to update exemption: %w", err)
		}
		details := map[string]string{"status": string(status)}
		if reason != "" {
			details["reason"] = reason
		}
		return s.writeAudit(txCtx, userID, action, exemption.ID.String(), exemption.CertificateNumber, details)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_exemption", exemption.ID.String())
	return exemption, nil
}

func (s *taxExemptionService) findByID(ctx context.Context, id string) (*model.TaxExemption, error) {
	exemptionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid exemption id")
	}
	exemption, err := s.exemptionRepo.FindByID(ctx, exemptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("exemption not found")
		}
		return nil, fmt.Errorf("failed to fetch exemption: %w", err)
	}
	return exemption, nil
}

func (s *taxExemptionService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
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
	return s.auditRepo.Log(ctx, &entry)
}
