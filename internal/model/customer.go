package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerType enum constants
const (
	CustomerTypeRetail    = "RETAIL"
	CustomerTypeWholesale = "WHOLESALE"
	CustomerTypeBusiness  = "BUSINESS"
)

// AddressType enum constants
const (
	AddressTypeBilling  = "BILLING"
	AddressTypeShipping = "SHIPPING"
)

// Customer represents a buyer account whose type feeds the tax rule context and
// whose exemption certificates may suspend liability
type Customer struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string            `gorm:"type:varchar(255);not null" json:"name"`
	Type          string            `gorm:"type:varchar(20);not null;index" json:"type"` // RETAIL, WHOLESALE, BUSINESS
	TaxCode       string            `gorm:"type:varchar(50)" json:"tax_code"`
	CompanyName   string            `gorm:"type:varchar(255)" json:"company_name"`
	ContactPerson string            `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string            `gorm:"type:varchar(50)" json:"phone"`
	Email         string            `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool              `gorm:"default:true" json:"is_active"`
	Addresses     []CustomerAddress `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
}

// CustomerAddress represents a customer's address (Billing or Shipping).
// Country/state/city/postal code are stored canonicalized; the calculators do
// no normalization of their own.
type CustomerAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // BILLING, SHIPPING
	Street      string    `gorm:"type:text" json:"street"`
	City        string    `gorm:"type:varchar(100)" json:"city"`
	State       string    `gorm:"type:varchar(50)" json:"state"`
	PostalCode  string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country     string    `gorm:"type:varchar(2);not null" json:"country"` // ISO 3166-1 alpha-2
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
