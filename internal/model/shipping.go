package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingMethodType enum constants
const (
	ShippingFlatRate    ShippingMethodType = "FLAT_RATE"
	ShippingFree        ShippingMethodType = "FREE_SHIPPING"
	ShippingWeightBased ShippingMethodType = "WEIGHT_BASED"
	ShippingPriceBased  ShippingMethodType = "PRICE_BASED"
	ShippingRealTime    ShippingMethodType = "REAL_TIME"
	ShippingLocalPickup ShippingMethodType = "LOCAL_PICKUP"
)

type ShippingMethodType string

// ValidShippingMethodType reports whether t is a known method type
func ValidShippingMethodType(t ShippingMethodType) bool {
	switch t {
	case ShippingFlatRate, ShippingFree, ShippingWeightBased,
		ShippingPriceBased, ShippingRealTime, ShippingLocalPickup:
		return true
	}
	return false
}

// ShippingZone is a geographic container. Countries are required; states, cities
// and postal codes narrow the zone when present. Postal code entries may carry a
// '*' wildcard segment (e.g. "9*", "*10").
type ShippingZone struct {
	ID                    uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                  string           `gorm:"type:varchar(255);not null" json:"name"`
	Description           string           `gorm:"type:text" json:"description"`
	Countries             pq.StringArray   `gorm:"type:text[];not null" json:"countries"`
	States                pq.StringArray   `gorm:"type:text[]" json:"states"`
	Cities                pq.StringArray   `gorm:"type:text[]" json:"cities"`
	PostalCodes           pq.StringArray   `gorm:"type:text[]" json:"postal_codes"`
	BaseCost              decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"base_cost"`
	FreeShippingThreshold *decimal.Decimal `gorm:"type:decimal(12,2)" json:"free_shipping_threshold"`
	Priority              int              `gorm:"default:0" json:"priority"`
	IsActive              bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ShippingMethod is a named delivery strategy with eligibility bounds and
// capability flags.
type ShippingMethod struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code              string             `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name              string             `gorm:"type:varchar(255);not null" json:"name"`
	Description       string             `gorm:"type:text" json:"description"`
	Type              ShippingMethodType `gorm:"type:varchar(20);not null" json:"type"`
	BaseCost          decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"base_cost"`
	HandlingFee       decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"handling_fee"`
	MinWeight         decimal.Decimal    `gorm:"type:decimal(10,3);default:0" json:"min_weight"` // kg
	MaxWeight         *decimal.Decimal   `gorm:"type:decimal(10,3)" json:"max_weight"`
	MinOrderAmount    *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"min_order_amount"` // free-shipping threshold
	MaxOrderAmount    *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"max_order_amount"`
	MinDeliveryDays   int                `gorm:"default:1" json:"min_delivery_days"`
	MaxDeliveryDays   int                `gorm:"default:7" json:"max_delivery_days"`
	HasTracking       bool               `gorm:"default:false" json:"has_tracking"`
	RequiresSignature bool               `gorm:"default:false" json:"requires_signature"`
	IsExpress         bool               `gorm:"default:false" json:"is_express"`
	IsActive          bool               `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	DeletedAt         gorm.DeletedAt     `gorm:"index" json:"-"`
}

// ShippingRate is the method+zone-scoped rate row the calculator resolves.
type ShippingRate struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey;" json:"id"`
	MethodID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_method_zone" json:"method_id"`
	Method          *ShippingMethod  `gorm:"foreignKey:MethodID" json:"method,omitempty"`
	ZoneID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_method_zone" json:"zone_id"`
	Zone            *ShippingZone    `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	Rate            decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"rate"`
	AdditionalFee   decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"additional_fee"`
	MinWeight       decimal.Decimal  `gorm:"type:decimal(10,3);default:0" json:"min_weight"`
	MaxWeight       *decimal.Decimal `gorm:"type:decimal(10,3)" json:"max_weight"`
	MinOrderValue   decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"min_order_value"`
	MaxOrderValue   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_order_value"`
	MinDeliveryDays int              `gorm:"default:0" json:"min_delivery_days"`
	MaxDeliveryDays int              `gorm:"default:0" json:"max_delivery_days"` // 0 = fall back to method
	IsFree          bool             `gorm:"default:false" json:"is_free"`
	IsActive        bool             `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}
