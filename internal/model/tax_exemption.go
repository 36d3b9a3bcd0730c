package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExemptionStatus enum constants
const (
	ExemptionPending   ExemptionStatus = "PENDING"
	ExemptionApproved  ExemptionStatus = "APPROVED"
	ExemptionRejected  ExemptionStatus = "REJECTED"
	ExemptionExpired   ExemptionStatus = "EXPIRED"
	ExemptionSuspended ExemptionStatus = "SUSPENDED"
)

type ExemptionStatus string

// ValidExemptionStatus reports whether s is a known exemption status
func ValidExemptionStatus(s ExemptionStatus) bool {
	switch s {
	case ExemptionPending, ExemptionApproved, ExemptionRejected, ExemptionExpired, ExemptionSuspended:
		return true
	}
	return false
}

// TaxExemption is a customer- or certificate-scoped suspension of tax liability.
// Only APPROVED + active + date-valid exemptions influence a calculation.
type TaxExemption struct {
	ID                   uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CertificateNumber    string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"certificate_number"`
	CustomerID           *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	Customer             *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status               ExemptionStatus  `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	Reason               string           `gorm:"type:text" json:"reason"`
	ApplicableTaxTypes   pq.StringArray   `gorm:"type:text[]" json:"applicable_tax_types"`  // empty = all
	ApplicableProducts   pq.StringArray   `gorm:"type:text[]" json:"applicable_products"`   // product IDs
	ApplicableCategories pq.StringArray   `gorm:"type:text[]" json:"applicable_categories"` // tax category codes
	ValidFrom            *time.Time       `gorm:"type:date" json:"valid_from"`
	ValidTo              *time.Time       `gorm:"type:date" json:"valid_to"`
	MaxExemptAmount      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_exempt_amount"`
	IsActive             bool             `gorm:"default:true" json:"is_active"`
	DecidedBy            *uuid.UUID       `gorm:"type:uuid" json:"decided_by"`
	DecidedAt            *time.Time       `json:"decided_at"`
	RejectionReason      string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	DeletedAt            gorm.DeletedAt   `gorm:"index" json:"-"`
}

// Applies reports whether the exemption is usable at time t
func (e *TaxExemption) Applies(t time.Time) bool {
	if e.Status != ExemptionApproved || !e.IsActive {
		return false
	}
	if e.ValidFrom != nil && t.Before(*e.ValidFrom) {
		return false
	}
	if e.ValidTo != nil && t.After(*e.ValidTo) {
		return false
	}
	return true
}

// CoversProduct reports whether the exemption names the given product ID
func (e *TaxExemption) CoversProduct(productID string) bool {
	for _, p := range e.ApplicableProducts {
		if p == productID {
			return true
		}
	}
	return false
}

// CoversCategory reports whether the exemption names the given category code
func (e *TaxExemption) CoversCategory(category string) bool {
	for _, c := range e.ApplicableCategories {
		if c == category {
			return true
		}
	}
	return false
}
