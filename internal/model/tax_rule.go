package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleField identifies an attribute of the calculation context a condition can
// inspect. The set is closed: unknown fields are rejected at rule creation.
type RuleField string

const (
	FieldCustomerType   RuleField = "customer_type"
	FieldOrderSubtotal  RuleField = "order_subtotal"
	FieldShippingAmount RuleField = "shipping_amount"
	FieldBillingCountry RuleField = "billing_country"
	FieldBillingState   RuleField = "billing_state"
	FieldBillingCity    RuleField = "billing_city"
	FieldItemCount      RuleField = "item_count"
	FieldItemTotal      RuleField = "item_total"
)

// ValidRuleField reports whether f is a known rule field
func ValidRuleField(f RuleField) bool {
	switch f {
	case FieldCustomerType, FieldOrderSubtotal, FieldShippingAmount,
		FieldBillingCountry, FieldBillingState, FieldBillingCity,
		FieldItemCount, FieldItemTotal:
		return true
	}
	return false
}

// ConditionOperator is the comparison applied between a context field and the
// condition's configured value(s).
type ConditionOperator string

const (
	OpEquals       ConditionOperator = "EQUALS"
	OpNotEquals    ConditionOperator = "NOT_EQUALS"
	OpGreaterThan  ConditionOperator = "GREATER_THAN"
	OpLessThan     ConditionOperator = "LESS_THAN"
	OpGreaterEqual ConditionOperator = "GREATER_EQUAL"
	OpLessEqual    ConditionOperator = "LESS_EQUAL"
	OpContains     ConditionOperator = "CONTAINS"
	OpNotContains  ConditionOperator = "NOT_CONTAINS"
	OpIn           ConditionOperator = "IN"
	OpNotIn        ConditionOperator = "NOT_IN"
	OpBetween      ConditionOperator = "BETWEEN"
	OpNotBetween   ConditionOperator = "NOT_BETWEEN"
)

// ValidConditionOperator reports whether op is a known operator
func ValidConditionOperator(op ConditionOperator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterEqual,
		OpLessEqual, OpContains, OpNotContains, OpIn, OpNotIn, OpBetween, OpNotBetween:
		return true
	}
	return false
}

// RuleActionType names the adjustment an action applies to the running tax total
type RuleActionType string

const (
	ActionSetTaxRate        RuleActionType = "SET_TAX_RATE"
	ActionAddTaxAmount      RuleActionType = "ADD_TAX_AMOUNT"
	ActionSubtractTaxAmount RuleActionType = "SUBTRACT_TAX_AMOUNT"
	ActionMultiplyTax       RuleActionType = "MULTIPLY_TAX"
	ActionSetMaxTax         RuleActionType = "SET_MAX_TAX"
	ActionSetMinTax         RuleActionType = "SET_MIN_TAX"
)

// ValidRuleActionType reports whether a is a known action type
func ValidRuleActionType(a RuleActionType) bool {
	switch a {
	case ActionSetTaxRate, ActionAddTaxAmount, ActionSubtractTaxAmount,
		ActionMultiplyTax, ActionSetMaxTax, ActionSetMinTax:
		return true
	}
	return false
}

// TaxRule is a declarative conditional modifier of the computed tax total.
// A rule qualifies only when every condition evaluates true; qualifying rules
// fold their actions into the total in descending rule priority order.
type TaxRule struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string             `gorm:"type:varchar(255);not null" json:"name"`
	Description string             `gorm:"type:text" json:"description"`
	Priority    int                `gorm:"default:0;index" json:"priority"`
	IsActive    bool               `gorm:"default:true;index" json:"is_active"`
	Conditions  []TaxRuleCondition `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"conditions"`
	Actions     []TaxRuleAction    `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"actions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

// TaxRuleCondition is a single (field, operator, value) triple.
// Value2 is only meaningful for BETWEEN / NOT_BETWEEN.
type TaxRuleCondition struct {
	ID       uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RuleID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"rule_id"`
	Field    RuleField         `gorm:"type:varchar(50);not null" json:"field"`
	Operator ConditionOperator `gorm:"type:varchar(20);not null" json:"operator"`
	Value    string            `gorm:"type:varchar(255);not null" json:"value"`
	Value2   *string           `gorm:"type:varchar(255)" json:"value2"`
	Position int               `gorm:"default:0" json:"position"`
}

// TaxRuleAction adjusts the running total; actions within a rule apply in
// Priority order.
type TaxRuleAction struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RuleID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"rule_id"`
	Action   RuleActionType  `gorm:"type:varchar(30);not null" json:"action"`
	Value    decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"value"`
	Priority int             `gorm:"default:0" json:"priority"`
}
