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

type CreateShippingZoneRequest struct {
	Name                  string           `json:"name" binding:"required"`
	Description           string           `json:"description"`
	Countries             []string         `json:"countries" binding:"required,min=1"`
	States                []string         `json:"states"`
	Cities                []string         `json:"cities"`
	PostalCodes           []string         `json:"postal_codes"`
	BaseCost              decimal.Decimal  `json:"base_cost"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold"`
	Priority              int              `json:"priority"`
}

type UpdateShippingZoneRequest struct {
	Name                  *string          `json:"name"`
	Description           *string          `json:"description"`
	Countries             *[]string        `json:"countries"`
	States                *[]string        `json:"states"`
	Cities                *[]string        `json:"cities"`
	PostalCodes           *[]string        `json:"postal_codes"`
	BaseCost              *decimal.Decimal `json:"base_cost"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold"`
	Priority              *int             `json:"priority"`
	IsActive              *bool            `json:"is_active"`
}

type CreateShippingMethodRequest struct {
	Code              string           `json:"code" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	Description       string           `json:"description"`
	Type              string           `json:"type" binding:"required"`
	BaseCost          decimal.Decimal  `json:"base_cost"`
	HandlingFee       decimal.Decimal  `json:"handling_fee"`
	MinWeight         decimal.Decimal  `json:"min_weight"`
	MaxWeight         *decimal.Decimal `json:"max_weight"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxOrderAmount    *decimal.Decimal `json:"max_order_amount"`
	MinDeliveryDays   int              `json:"min_delivery_days"`
	MaxDeliveryDays   int              `json:"max_delivery_days"`
	HasTracking       bool             `json:"has_tracking"`
	RequiresSignature bool             `json:"requires_signature"`
	IsExpress         bool             `json:"is_express"`
}

type UpdateShippingMethodRequest struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Type              *string          `json:"type"`
	BaseCost          *decimal.Decimal `json:"base_cost"`
	HandlingFee       *decimal.Decimal `json:"handling_fee"`
	MinWeight         *decimal.Decimal `json:"min_weight"`
	MaxWeight         *decimal.Decimal `json:"max_weight"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxOrderAmount    *decimal.Decimal `json:"max_order_amount"`
	MinDeliveryDays   *int             `json:"min_delivery_days"`
	MaxDeliveryDays   *int             `json:"max_delivery_days"`
	HasTracking       *bool            `json:"has_tracking"`
	RequiresSignature *bool            `json:"requires_signature"`
	IsExpress         *bool            `json:"is_express"`
	IsActive          *bool            `json:"is_active"`
}

type CreateShippingRateRequest struct {
	MethodID        string           `json:"method_id" binding:"required"`
	ZoneID          string           `json:"zone_id" binding:"required"`
	Rate            decimal.Decimal  `json:"rate"`
	AdditionalFee   decimal.Decimal  `json:"additional_fee"`
	MinWeight       decimal.Decimal  `json:"min_weight"`
	MaxWeight       *decimal.Decimal `json:"max_weight"`
	MinOrderValue   decimal.Decimal  `json:"min_order_value"`
	MaxOrderValue   *decimal.Decimal `json:"max_order_value"`
	MinDeliveryDays int              `json:"min_delivery_days"`
	MaxDeliveryDays int              `json:"max_delivery_days"`
	IsFree          bool             `json:"is_free"`
}

type UpdateShippingRateRequest struct {
	Rate            *decimal.Decimal `json:"rate"`
	AdditionalFee   *decimal.Decimal `json:"additional_fee"`
	MinWeight       *decimal.Decimal `json:"min_weight"`
	MaxWeight       *decimal.Decimal `json:"max_weight"`
	MinOrderValue   *decimal.Decimal `json:"min_order_value"`
	MaxOrderValue   *decimal.Decimal `json:"max_order_value"`
	MinDeliveryDays *int             `json:"min_delivery_days"`
	MaxDeliveryDays *int             `json:"max_delivery_days"`
	IsFree          *bool            `json:"is_free"`
	IsActive        *bool            `json:"is_active"`
}

// --- Interface ---

type ShippingService interface {
	CreateZone(ctx context.Context, req CreateShippingZoneRequest, userID string) (*model.ShippingZone, error)
	UpdateZone(ctx context.Context, id string, req UpdateShippingZoneRequest, userID string) (*model.ShippingZone, error)
	DeleteZone(ctx context.Context, id string, userID string) error
	GetZone(ctx context.Context, id string) (*model.ShippingZone, error)
	ListZones(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error)

	CreateMethod(ctx context.Context, req CreateShippingMethodRequest, userID string) (*model.ShippingMethod, error)
	UpdateMethod(ctx context.Context, id string, req UpdateShippingMethodRequest, userID string) (*model.ShippingMethod, error)
	DeleteMethod(ctx context.Context, id string, userID string) error
	GetMethod(ctx context.Context, id string) (*model.ShippingMethod, error)
	ListMethods(ctx context.Context, page, limit int) ([]model.ShippingMethod, int64, error)

	CreateRate(ctx context.Context, req CreateShippingRateRequest, userID string) (*model.ShippingRate, error)
	UpdateRate(ctx context.Context, id string, req UpdateShippingRateRequest, userID string) (*model.ShippingRate, error)
	DeleteRate(ctx context.Context, id string, userID string) error
	ListRates(ctx context.Context, zoneID string, page, limit int) ([]model.ShippingRate, int64, error)
}

type shippingService struct {
	zoneRepo   repository.ShippingZoneRepository
	methodRepo repository.ShippingMethodRepository
	rateRepo   repository.ShippingRateRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   ConfigNotifier
}

func NewShippingService(
	zoneRepo repository.ShippingZoneRepository,
	methodRepo repository.ShippingMethodRepository,
	rateRepo repository.ShippingRateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ConfigNotifier,
) ShippingService {
	return &shippingService{
		zoneRepo:   zoneRepo,
		methodRepo: methodRepo,
		rateRepo:   rateRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
	}
}

// --- Zones ---

func (s *shippingService) CreateZone(ctx context.Context, req CreateShippingZoneRequest, userID string) (*model.ShippingZone, error) {
	if len(req.Countries) == 0 {
		return nil, fmt.Errorf("a zone requires at least one country")
	}

	zone := &model.ShippingZone{
		Name:                  req.Name,
		Description:           req.Description,
		Countries:             req.Countries,
		States:                req.States,
		Cities:                req.Cities,
		PostalCodes:           req.PostalCodes,
		BaseCost:              req.BaseCost,
		FreeShippingThreshold: req.FreeShippingThreshold,
		Priority:              req.Priority,
		IsActive:              true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.zoneRepo.Create(txCtx, zone); err != nil {
			return fmt.Errorf("failed to create shipping zone: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateShippingZone, zone.ID.String(), zone.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_zone", zone.ID.String())
	return zone, nil
}

func (s *shippingService) UpdateZone(ctx context.Context, id string, req UpdateShippingZoneRequest, userID string) (*model.ShippingZone, error) {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping zone id")
	}

	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping zone: %w", err)
	}

	if req.Name != nil {
		zone.Name = *req.Name
	}
	if req.Description != nil {
		zone.Description = *req.Description
	}
	if req.Countries != nil {
		if len(*req.Countries) == 0 {
			return nil, fmt.Errorf("a zone requires at least one country")
		}
		zone.Countries = *req.Countries
	}
	if req.States != nil {
		zone.States = *req.States
	}
	if req.Cities != nil {
		zone.Cities = *req.Cities
	}
	if req.PostalCodes != nil {
		zone.PostalCodes = *req.PostalCodes
	}
	if req.BaseCost != nil {
		zone.BaseCost = *req.BaseCost
	}
	if req.FreeShippingThreshold != nil {
		zone.FreeShippingThreshold = req.FreeShippingThreshold
	}
	if req.Priority != nil {
		zone.Priority = *req.Priority
	}
	if req.IsActive != nil {
		zone.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.zoneRepo.Update(txCtx, zone); err != nil {
			return fmt.Errorf("failed to update shipping zone: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateShippingZone, zone.ID.String(), zone.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_zone", zone.ID.String())
	return zone, nil
}

func (s *shippingService) DeleteZone(ctx context.Context, id string, userID string) error {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid shipping zone id")
	}

	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("shipping zone not found")
		}
		return fmt.Errorf("failed to fetch shipping zone: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.zoneRepo.Delete(txCtx, zoneID); err != nil {
			return fmt.Errorf("failed to delete shipping zone: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteShippingZone, id, zone.Name, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("shipping_zone", id)
	return nil
}

func (s *shippingService) GetZone(ctx context.Context, id string) (*model.ShippingZone, error) {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping zone id")
	}
	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping zone: %w", err)
	}
	return zone, nil
}

func (s *shippingService) ListZones(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error) {
	return s.zoneRepo.List(ctx, page, limit)
}

// --- Methods ---

func (s *shippingService) CreateMethod(ctx context.Context, req CreateShippingMethodRequest, userID string) (*model.ShippingMethod, error) {
	if !model.ValidShippingMethodType(model.ShippingMethodType(req.Type)) {
		return nil, fmt.Errorf("type must be one of: FLAT_RATE, FREE_SHIPPING, WEIGHT_BASED, PRICE_BASED, REAL_TIME, LOCAL_PICKUP")
	}
	if existing, err := s.methodRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("a shipping method with code '%s' already exists", req.Code)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check method code: %w", err)
	}

	method := &model.ShippingMethod{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		Type:              model.ShippingMethodType(req.Type),
		BaseCost:          req.BaseCost,
		HandlingFee:       req.HandlingFee,
		MinWeight:         req.MinWeight,
		MaxWeight:         req.MaxWeight,
		MinOrderAmount:    req.MinOrderAmount,
		MaxOrderAmount:    req.MaxOrderAmount,
		MinDeliveryDays:   req.MinDeliveryDays,
		MaxDeliveryDays:   req.MaxDeliveryDays,
		HasTracking:       req.HasTracking,
		RequiresSignature: req.RequiresSignature,
		IsExpress:         req.IsExpress,
		IsActive:          true,
	}
	if method.MinDeliveryDays <= 0 {
		method.MinDeliveryDays = 1
	}
	if method.MaxDeliveryDays <= 0 {
		method.MaxDeliveryDays = 7
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Create(txCtx, method); err != nil {
			return fmt.Errorf("failed to create shipping method: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateShippingMethod, method.ID.String(), method.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_method", method.ID.String())
	return method, nil
}

func (s *shippingService) UpdateMethod(ctx context.Context, id string, req UpdateShippingMethodRequest, userID string) (*model.ShippingMethod, error) {
	methodID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping method id")
	}

	method, err := s.methodRepo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping method not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping method: %w", err)
	}

	if req.Name != nil {
		method.Name = *req.Name
	}
	if req.Description != nil {
		method.Description = *req.Description
	}
	if req.Type != nil {
		if !model.ValidShippingMethodType(model.ShippingMethodType(*req.Type)) {
			return nil, fmt.Errorf("type must be one of: FLAT_RATE, FREE_SHIPPING, WEIGHT_BASED, PRICE_BASED, REAL_TIME, LOCAL_PICKUP")
		}
		method.Type = model.ShippingMethodType(*req.Type)
	}
	if req.BaseCost != nil {
		method.BaseCost = *req.BaseCost
	}
	if req.HandlingFee != nil {
		method.HandlingFee = *req.HandlingFee
	}
	if req.MinWeight != nil {
		method.MinWeight = *req.MinWeight
	}
	if req.MaxWeight != nil {
		method.MaxWeight = req.MaxWeight
	}
	if req.MinOrderAmount != nil {
		method.MinOrderAmount = req.MinOrderAmount
	}
	if req.MaxOrderAmount != nil {
		method.MaxOrderAmount = req.MaxOrderAmount
	}
	if req.MinDeliveryDays != nil {
		method.MinDeliveryDays = *req.MinDeliveryDays
	}
	if req.MaxDeliveryDays != nil {
		method.MaxDeliveryDays = *req.MaxDeliveryDays
	}
	if req.HasTracking != nil {
		method.HasTracking = *req.HasTracking
	}
	if req.RequiresSignature != nil {
		method.RequiresSignature = *req.RequiresSignature
	}
	if req.IsExpress != nil {
		method.IsExpress = *req.IsExpress
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Update(txCtx, method); err != nil {
			return fmt.Errorf("failed to update shipping method: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateShippingMethod, method.ID.String(), method.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_method", method.ID.String())
	return method, nil
}

func (s *shippingService) DeleteMethod(ctx context.Context, id string, userID string) error {
	methodID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid shipping method id")
	}

	method, err := s.methodRepo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("shipping method not found")
		}
		return fmt.Errorf("failed to fetch shipping method: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Delete(txCtx, methodID); err != nil {
			return fmt.Errorf("failed to delete shipping method: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteShippingMethod, id, method.Code, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("shipping_method", id)
	return nil
}

func (s *shippingService) GetMethod(ctx context.Context, id string) (*model.ShippingMethod, error) {
	methodID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping method id")
	}
	method, err := s.methodRepo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping method not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping method: %w", err)
	}
	return method, nil
}

func (s *shippingService) ListMethods(ctx context.Context, page, limit int) ([]model.ShippingMethod, int64, error) {
	return s.methodRepo.List(ctx, page, limit)
}

// --- Rates ---

func (s *shippingService) CreateRate(ctx context.Context, req CreateShippingRateRequest, userID string) (*model.ShippingRate, error) {
	methodID, err := uuid.Parse(req.MethodID)
	if err != nil {
		return nil, fmt.Errorf("invalid method id")
	}
	zoneID, err := uuid.Parse(req.ZoneID)
	if err != nil {
		return nil, fmt.Errorf("invalid zone id")
	}

	if _, err := s.methodRepo.FindByID(ctx, methodID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping method not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping method: %w", err)
	}
	if _, err := s.zoneRepo.FindByID(ctx, zoneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping zone: %w", err)
	}
	if existing, err := s.rateRepo.FindByMethodAndZone(ctx, methodID, zoneID); err == nil && existing != nil {
		return nil, fmt.Errorf("a rate for this method and zone already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing rate: %w", err)
	}

	rate := &model.ShippingRate{
		MethodID:        methodID,
		ZoneID:          zoneID,
		Rate:            req.Rate,
		AdditionalFee:   req.AdditionalFee,
		MinWeight:       req.MinWeight,
		MaxWeight:       req.MaxWeight,
		MinOrderValue:   req.MinOrderValue,
		MaxOrderValue:   req.MaxOrderValue,
		MinDeliveryDays: req.MinDeliveryDays,
		MaxDeliveryDays: req.MaxDeliveryDays,
		IsFree:          req.IsFree,
		IsActive:        true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Create(txCtx, rate); err != nil {
			return fmt.Errorf("failed to create shipping rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateShippingRate, rate.ID.String(), "", req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_rate", rate.ID.String())
	return rate, nil
}

func (s *shippingService) UpdateRate(ctx context.Context, id string, req UpdateShippingRateRequest, userID string) (*model.ShippingRate, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping rate id")
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipping rate not found")
		}
		return nil, fmt.Errorf("failed to fetch shipping rate: %w", err)
	}

	if req.Rate != nil {
		rate.Rate = *req.Rate
	}
	if req.AdditionalFee != nil {
		rate.AdditionalFee = *req.AdditionalFee
	}
	if req.MinWeight != nil {
		rate.MinWeight = *req.MinWeight
	}
	if req.MaxWeight != nil {
		rate.MaxWeight = req.MaxWeight
	}
	if req.MinOrderValue != nil {
		rate.MinOrderValue = *req.MinOrderValue
	}
	if req.MaxOrderValue != nil {
		rate.MaxOrderValue = req.MaxOrderValue
	}
	if req.MinDeliveryDays != nil {
		rate.MinDeliveryDays = *req.MinDeliveryDays
	}
	if req.MaxDeliveryDays != nil {
		rate.MaxDeliveryDays = *req.MaxDeliveryDays
	}
	if req.IsFree != nil {
		rate.IsFree = *req.IsFree
	}
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Update(txCtx, rate); err != nil {
			return fmt.Errorf("failed to update shipping rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateShippingRate, rate.ID.String(), "", req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConfigChanged("shipping_rate", rate.ID.String())
	return rate, nil
}

func (s *shippingService) DeleteRate(ctx context.Context, id string, userID string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid shipping rate id")
	}

	if _, err := s.rateRepo.FindByID(ctx, rateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("shipping rate not found")
		}
		return fmt.Errorf("failed to fetch shipping rate: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rateRepo.Delete(txCtx, rateID); err != nil {
			return fmt.Errorf("failed to delete shipping rate: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteShippingRate, id, "", map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.notifier.ConfigChanged("shipping_rate", id)
	return nil
}

func (s *shippingService) ListRates(ctx context.Context, zoneID string, page, limit int) ([]model.ShippingRate, int64, error) {
	var zoneFilter *uuid.UUID
	if zoneID != "" {
		parsed, err := uuid.Parse(zoneID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid zone id")
		}
		zoneFilter = &parsed
	}
	return s.rateRepo.List(ctx, zoneFilter, page, limit)
}

func (s *shippingService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
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
