package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item. The calculators read it for price, weight
// and tax category when a calculation request omits those per item.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Weight        decimal.Decimal `gorm:"type:decimal(10,3);default:0" json:"weight"` // kg
	TaxCategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"tax_category_id"`
	TaxCategory   *TaxCategory    `gorm:"foreignKey:TaxCategoryID" json:"tax_category,omitempty"`
	HSNCode       string          `gorm:"type:varchar(10)" json:"hsn_code"`
	IsDigital     bool            `gorm:"default:false" json:"is_digital"`
	IsService     bool            `gorm:"default:false" json:"is_service"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
