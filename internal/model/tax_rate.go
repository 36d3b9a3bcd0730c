package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxType enum constants
const (
	TaxTypeSales TaxType = "SALES"
	TaxTypeVAT   TaxType = "VAT"
	TaxTypeGST   TaxType = "GST"
	TaxTypeHST   TaxType = "HST"
	TaxTypePST   TaxType = "PST"
)

// TaxCalculationType enum constants
const (
	TaxCalcPercentage  TaxCalculationType = "PERCENTAGE"
	TaxCalcFixedAmount TaxCalculationType = "FIXED_AMOUNT"
	TaxCalcCompound    TaxCalculationType = "COMPOUND"
)

type TaxType string
type TaxCalculationType string

// ValidTaxType reports whether t is a known tax type
func ValidTaxType(t TaxType) bool {
	switch t {
	case TaxTypeSales, TaxTypeVAT, TaxTypeGST, TaxTypeHST, TaxTypePST:
		return true
	}
	return false
}

// ValidTaxCalculationType reports whether t is a known calculation type
func ValidTaxCalculationType(t TaxCalculationType) bool {
	switch t {
	case TaxCalcPercentage, TaxCalcFixedAmount, TaxCalcCompound:
		return true
	}
	return false
}

// TaxRate is a jurisdiction-scoped rate definition. Geographic fields narrow the
// scope: a nil State/City/PostalCode acts as a wildcard for that field.
type TaxRate struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code              string             `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name              string             `gorm:"type:varchar(255);not null" json:"name"`
	Type              TaxType            `gorm:"type:varchar(20);not null" json:"type"`
	CalculationType   TaxCalculationType `gorm:"type:varchar(20);not null" json:"calculation_type"`
	Rate              decimal.Decimal    `gorm:"type:decimal(10,6);not null" json:"rate"` // fraction, e.g. 0.0825 = 8.25%
	FixedAmount       decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"fixed_amount"`
	Country           string             `gorm:"type:varchar(2);not null;index" json:"country"` // ISO 3166-1 alpha-2
	State             *string            `gorm:"type:varchar(50);index" json:"state"`
	City              *string            `gorm:"type:varchar(100)" json:"city"`
	PostalCode        *string            `gorm:"type:varchar(20)" json:"postal_code"`
	MinimumAmount     decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"minimum_amount"`
	MaximumAmount     *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"maximum_amount"` // nil = no cap on taxed base
	IsShippingTaxable bool               `gorm:"default:false" json:"is_shipping_taxable"`
	Priority          int                `gorm:"default:0;index" json:"priority"`
	IsActive          bool               `gorm:"default:true;index" json:"is_active"`
	EffectiveFrom     *time.Time         `gorm:"type:date" json:"effective_from"`
	EffectiveTo       *time.Time         `gorm:"type:date" json:"effective_to"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	DeletedAt         gorm.DeletedAt     `gorm:"index" json:"-"`
}

// EffectiveAt reports whether the rate's optional date window covers t
func (r *TaxRate) EffectiveAt(t time.Time) bool {
	if r.EffectiveFrom != nil && t.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && t.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// TaxCategoryCode enum constants
const (
	TaxCategoryGeneral TaxCategoryCode = "GENERAL"
	TaxCategoryFood    TaxCategoryCode = "FOOD"
	TaxCategoryDigital TaxCategoryCode = "DIGITAL"
	TaxCategoryService TaxCategoryCode = "SERVICE"
	TaxCategoryExempt  TaxCategoryCode = "EXEMPT"
)

type TaxCategoryCode string

// TaxCategory classifies products for taxability
type TaxCategory struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        TaxCategoryCode `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	DefaultRate decimal.Decimal `gorm:"type:decimal(10,6);default:0" json:"default_rate"`
	IsExempt    bool            `gorm:"default:false" json:"is_exempt"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
