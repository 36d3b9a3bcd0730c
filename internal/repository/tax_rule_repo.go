package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	Update(ctx context.Context, rule *model.TaxRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error)
	ListActive(ctx context.Context) ([]model.TaxRule, error)
	ReplaceConditions(ctx context.Context, ruleID uuid.UUID, conditions []model.TaxRuleCondition) error
	ReplaceActions(ctx context.Context, ruleID uuid.UUID, actions []model.TaxRuleAction) error
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) Update(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Omit("Conditions", "Actions").Save(rule).Error
}

func (r *taxRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxRule{}).Error
}

func (r *taxRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error) {
	var rule model.TaxRule
	if err := GetDB(ctx, r.db).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("priority asc") }).
		First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	var rules []model.TaxRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("priority asc") }).
		Order("priority desc").
		Offset(offset).Limit(limit).
		Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

// ListActive returns every active rule, highest priority first, with conditions
// and actions preloaded in evaluation order.
func (r *taxRuleRepository) ListActive(ctx context.Context) ([]model.TaxRule, error) {
	var rules []model.TaxRule
	if err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("priority asc") }).
		Order("priority desc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *taxRuleRepository) ReplaceConditions(ctx context.Context, ruleID uuid.UUID, conditions []model.TaxRuleCondition) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("rule_id = ?", ruleID).Delete(&model.TaxRuleCondition{}).Error; err != nil {
		return err
	}
	if len(conditions) == 0 {
		return nil
	}
	return db.Create(&conditions).Error
}

func (r *taxRuleRepository) ReplaceActions(ctx context.Context, ruleID uuid.UUID, actions []model.TaxRuleAction) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("rule_id = ?", ruleID).Delete(&model.TaxRuleAction{}).Error; err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}
	return db.Create(&actions).Error
}
