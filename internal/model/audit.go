package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"

	ActionCreateTaxRate = "CREATE_TAX_RATE"
	ActionUpdateTaxRate = "UPDATE_TAX_RATE"
	ActionDeleteTaxRate = "DELETE_TAX_RATE"

	ActionCreateTaxCategory = "CREATE_TAX_CATEGORY"
	ActionUpdateTaxCategory = "UPDATE_TAX_CATEGORY"
	ActionDeleteTaxCategory = "DELETE_TAX_CATEGORY"

	ActionCreateTaxRule = "CREATE_TAX_RULE"
	ActionUpdateTaxRule = "UPDATE_TAX_RULE"
	ActionDeleteTaxRule = "DELETE_TAX_RULE"

	// Exemption certificate workflow actions
	ActionCreateExemption  = "CREATE_TAX_EXEMPTION"
	ActionUpdateExemption  = "UPDATE_TAX_EXEMPTION"
	ActionApproveExemption = "APPROVE_TAX_EXEMPTION"
	ActionRejectExemption  = "REJECT_TAX_EXEMPTION"
	ActionSuspendExemption = "SUSPEND_TAX_EXEMPTION"

	ActionCreateShippingZone   = "CREATE_SHIPPING_ZONE"
	ActionUpdateShippingZone   = "UPDATE_SHIPPING_ZONE"
	ActionDeleteShippingZone   = "DELETE_SHIPPING_ZONE"
	ActionCreateShippingMethod = "CREATE_SHIPPING_METHOD"
	ActionUpdateShippingMethod = "UPDATE_SHIPPING_METHOD"
	ActionDeleteShippingMethod = "DELETE_SHIPPING_METHOD"
	ActionCreateShippingRate   = "CREATE_SHIPPING_RATE"
	ActionUpdateShippingRate   = "UPDATE_SHIPPING_RATE"
	ActionDeleteShippingRate   = "DELETE_SHIPPING_RATE"

	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionUpdateCustomer = "UPDATE_CUSTOMER"
	ActionDeleteCustomer = "DELETE_CUSTOMER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
