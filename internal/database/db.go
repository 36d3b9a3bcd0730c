package database

import (
	"backend/internal/model"
	"backend/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.Customer{},
		&model.CustomerAddress{},
		&model.Product{},
		&model.TaxCategory{},
		&model.TaxRate{},
		&model.TaxRule{},
		&model.TaxRuleCondition{},
		&model.TaxRuleAction{},
		&model.TaxExemption{},
		&model.ShippingZone{},
		&model.ShippingMethod{},
		&model.ShippingRate{},
	)
	if err != nil {
		logger.Warn("Failed to auto-migrate models", map[string]interface{}{"error": err.Error()})
	}

	return db, nil
}
