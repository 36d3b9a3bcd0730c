package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type RuleConditionPayload struct {
	Field    string  `json:"field" binding:"required"`
	Operator string  `json:"operator" binding:"required"`
	Value    string  `json:"value" binding:"required"`
	Value2   *string `json:"value2"`
}

type RuleActionPayload struct {
	Action   string          `json:"action" binding:"required"`
	Value    decimal.Decimal `json:"value"`
	Priority int             `json:"priority"`
}

type CreateTaxRuleRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Priority    int                    `json:"priority"`
	Conditions  []RuleConditionPayload `json:"conditions" binding:"required,min=1,dive"`
	Actions     []RuleActionPayload    `json:"actions" binding:"required,min=1,dive"`
}

type UpdateTaxRuleRequest struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Priority    *int                    `json:"priority"`
	IsActive    *bool                   `json:"is_active"`
	Conditions  *[]RuleConditionPayload `json:"conditions"` // nil = not sent, [] invalid (a rule needs conditions)
	Actions     *[]RuleActionPayload    `json:"actions"`
}

// --- Interface ---

type TaxRuleService interface {
	Create(ctx context.Context, req CreateTaxRuleRequest, userID string) (*model.TaxRule, error)
	Update(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (*model.TaxRule, error)
	Delete(ctx context.Context, id string, userID string) error
	Get(ctx context.Context, id string) (*model.TaxRule, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error)
}

type taxRuleService struct {
	ruleRepo  repository.TaxRuleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	notifier  ConfigNotifier
}

func NewTaxRuleService(
	ruleRepo repository.TaxRuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ConfigNotifier,
) TaxRuleService {
	return &taxRuleService{
		ruleRepo:  ruleRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		notifier:  notifier,
	}
}

// --- Validation ---

// Conditions and actions are validated against the closed enumerations at
// write time so the evaluator never meets an unknown operator at runtime.
func validateConditions(payloads []RuleConditionPayload) error {
	if len(payloads) == 0 {
		return fmt.Errorf("a rule requires at least one condition")
	}
	for i, c := range payloads {
		if !model.ValidRuleField(model.RuleField(c.Field)) {
			return fmt.Errorf("conditions[%d]: unknown field '%s'", i, c.Field)
		}
		op := model.ConditionOperator(c.Operator)
		if !model.ValidConditionOperator(op) {
			return fmt.Errorf("conditions[%d]: unknown operator '%s'", i, c.Operator)
		}
		if (op == model.OpBetween || op == model.OpNotBetween) && (c.Value2 == nil || *c.Value2 == "") {
			return fmt.Errorf("conditions[%d]: %s requires value2", i, c.Operator)
		}
	}
	return nil
}

func validateActions(payloads []RuleActionPayload) error {
	if len(payloads) == 0 {
		return fmt.Errorf("a rule requires at least one action")
	}
	for i, a := range payloads {
		if !model.ValidRuleActionType(model.RuleActionType(a.Action)) {
			return fmt.Errorf("actions[%d]: unknown action '%s'", i, a.Action)
		}
	}
	return nil
}

func toConditionModels(ruleID uuid.UUID, payloads []RuleConditionPayload) []model.TaxRuleCondition {
	conditions := make([]model.TaxRuleCondition, 0, len(payloads))
	for i, c := range payloads {
		conditions = append(conditions, model.TaxRuleCondition{
			RuleID:   ruleID,
			Field:    model.RuleField(c.Field),
			Operator: model.ConditionOperator(c.Operator),
			Value:    c.Value,
			Value2:   c.Value2,
			Position: i,
		})
	}
	return conditions
}

func toActionModels(ruleID uuid.UUID, payloads []RuleActionPayload) []model.TaxRuleAction {
	actions := make([]model.TaxRuleAction, 0, len(payloads))
	for _, a := range payloads {
		actions = append(actions, model.TaxRuleAction{
			RuleID:   ruleID,
			Action:   model.RuleActionType(a.Action),
			Value:    a.Value,
			Priority: a.Priority,
		})
	}
	return actions
}

// --- CRUD ---

func (s *taxRuleService) Create(ctx context.Context, req CreateTaxRuleRequest, userID string) (*model.TaxRule, error) {
	if err := validateConditions(req.Conditions); err != nil {
		return nil, err
	}
	if err := validateActions(req.Actions); err != nil {
		return nil, err
	}

	rule := &model.TaxRule{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		IsActive:    true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Create(txCtx, rule); err != nil {
			return fmt.Errorf("failed to create tax rule: %w", err)
		}
		if err := s.ruleRepo.ReplaceConditions(txCtx, rule.ID, toConditionModels(rule.ID, req.Conditions)); err != nil {
			return fmt.Errorf("failed to store rule conditions: %w", err)
		}
		if err := s.ruleRepo.ReplaceActions(txCtx, rule.ID, toActionModels(rule.ID, req.Actions)); err != nil {
			return fmt.Errorf("failed to store rule actions: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateTaxRule, rule.ID.String(), rule.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_rule", rule.ID.String())
	return s.ruleRepo.FindByID(ctx, rule.ID)
}

func (s *taxRuleService) Update(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (*model.TaxRule, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rule id")
	}

	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax rule not found")
		}
		return nil, fmt.Errorf("failed to fetch tax rule: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Conditions != nil {
		if err := validateConditions(*req.Conditions); err != nil {
			return nil, err
		}
	}
	if req.Actions != nil {
		if err := validateActions(*req.Actions); err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Update(txCtx, rule); err != nil {
			return fmt.Errorf("failed to update tax rule: %w", err)
		}
		if req.Conditions != nil {
			if err := s.ruleRepo.ReplaceConditions(txCtx, rule.ID, toConditionModels(rule.ID, *req.Conditions)); err != nil {
				return fmt.Errorf("failed to replace rule conditions: %w", err)
			}
		}
		if req.Actions != nil {
			if err := s.ruleRepo.ReplaceActions(txCtx, rule.ID, toActionModels(rule.ID, *req.Actions)); err != nil {
				return fmt.Errorf("failed to replace rule actions: %w", err)
			}
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateTaxRule, rule.ID.String(), rule.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("tax_rule", rule.ID.String())
	return s.ruleRepo.FindByID(ctx, rule.ID)
}

func (s *taxRuleService) Delete(ctx context.Context, id string, userID string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rule id")
	}

	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rule not found")
		}
		return fmt.Errorf("failed to fetch tax rule: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Delete(txCtx, ruleID); err != nil {
			return fmt.Errorf("failed to delete tax rule: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteTaxRule, id, rule.Name, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("tax_rule", id)
	return nil
}

func (s *taxRuleService) Get(ctx context.Context, id string) (*model.TaxRule, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rule id")
	}
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax rule not found")
		}
		return nil, fmt.Errorf("failed to fetch tax rule: %w", err)
	}
	return rule, nil
}

func (s *taxRuleService) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	return s.ruleRepo.List(ctx, page, limit)
}

func (s *taxRuleService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
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
