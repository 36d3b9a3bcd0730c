package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNoShippingZone = errors.New("no shipping zone matches the destination address")

// Surcharge slopes for weight- and price-based methods. The per-kg fee kicks
// in above the method's minimum weight; the price fee is charged per full 100
// of order value.
var (
	weightSurchargePerKg     = decimal.NewFromFloat(1.50)
	priceSurchargePerHundred = decimal.NewFromFloat(2.00)
)

// --- DTOs ---

type ShippingItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Weight    decimal.Decimal `json:"weight"` // kg per unit; backfilled from catalog when zero
	Price     decimal.Decimal `json:"price"`
}

type CalculateShippingRequest struct {
	Address    AddressInput        `json:"address" binding:"required"`
	Items      []ShippingItemInput `json:"items" binding:"required,min=1,dive"`
	OrderTotal decimal.Decimal     `json:"order_total"`
}

type ShippingOption struct {
	MethodID          uuid.UUID       `json:"method_id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Cost              decimal.Decimal `json:"cost"`
	IsFree            bool            `json:"is_free"`
	MinDeliveryDays   int             `json:"min_delivery_days"`
	MaxDeliveryDays   int             `json:"max_delivery_days"`
	HasTracking       bool            `json:"has_tracking"`
	RequiresSignature bool            `json:"requires_signature"`
	IsExpress         bool            `json:"is_express"`
}

type ZoneSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ShippingCalculationResult struct {
	Zone        ZoneSummary      `json:"zone"`
	TotalWeight decimal.Decimal  `json:"total_weight"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	Options     []ShippingOption `json:"options"`
}

// --- Interface ---

type ShippingCalculationService interface {
	Calculate(ctx context.Context, req CalculateShippingRequest) (ShippingCalculationResult, error)
}

type shippingCalculationService struct {
	zoneRepo    repository.ShippingZoneRepository
	methodRepo  repository.ShippingMethodRepository
	rateRepo    repository.ShippingRateRepository
	productRepo repository.ProductRepository
}

func NewShippingCalculationService(
	zoneRepo repository.ShippingZoneRepository,
	methodRepo repository.ShippingMethodRepository,
	rateRepo repository.ShippingRateRepository,
	productRepo repository.ProductRepository,
) ShippingCalculationService {
	return &shippingCalculationService{
		zoneRepo:    zoneRepo,
		methodRepo:  methodRepo,
		rateRepo:    rateRepo,
		productRepo: productRepo,
	}
}

func (s *shippingCalculationService) Calculate(ctx context.Context, req CalculateShippingRequest) (ShippingCalculationResult, error) {
	if err := s.backfillItemWeights(ctx, req.Items); err != nil {
		return ShippingCalculationResult{}, err
	}

	zones, err := s.zoneRepo.ListActive(ctx)
	if err != nil {
		return ShippingCalculationResult{}, fmt.Errorf("failed to load shipping zones: %w", err)
	}

	zone := matchShippingZone(req.Address, zones)
	if zone == nil {
		return ShippingCalculationResult{}, ErrNoShippingZone
	}

	methods, err := s.methodRepo.ListActive(ctx)
	if err != nil {
		return ShippingCalculationResult{}, fmt.Errorf("failed to load shipping methods: %w", err)
	}

	rates, err := s.rateRepo.ListActiveByZone(ctx, zone.ID)
	if err != nil {
		return ShippingCalculationResult{}, fmt.Errorf("failed to load shipping rates: %w", err)
	}

	return computeShipping(req, zone, methods, rates), nil
}

// backfillItemWeights fills in per-unit weights for items that omit them, from
// the product catalog.
func (s *shippingCalculationService) backfillItemWeights(ctx context.Context, items []ShippingItemInput) error {
	var missing []uuid.UUID
	for _, item := range items {
		if !item.Weight.IsZero() || item.ProductID == "" {
			continue
		}
		if id, err := uuid.Parse(item.ProductID); err == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	products, err := s.productRepo.FindByIDs(ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	weights := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		weights[p.ID.String()] = p.Weight
	}
	for i := range items {
		if items[i].Weight.IsZero() {
			items[i].Weight = weights[items[i].ProductID]
		}
	}
	return nil
}

// computeShipping builds the sorted option list for a resolved zone. A method
// whose rate row is missing or misconfigured is excluded from the options
// rather than failing the whole request.
func computeShipping(req CalculateShippingRequest, zone *model.ShippingZone, methods []model.ShippingMethod, rates []model.ShippingRate) ShippingCalculationResult {
	totalWeight := decimal.Zero
	totalValue := decimal.Zero
	for _, item := range req.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		totalWeight = totalWeight.Add(item.Weight.Mul(qty))
		totalValue = totalValue.Add(item.Price.Mul(qty))
	}
	if !req.OrderTotal.IsZero() {
		totalValue = req.OrderTotal
	}

	rateByMethod := make(map[uuid.UUID]*model.ShippingRate, len(rates))
	for i := range rates {
		rateByMethod[rates[i].MethodID] = &rates[i]
	}

	options := make([]ShippingOption, 0, len(methods))
	for i := range methods {
		method := &methods[i]
		option, err := methodOption(method, rateByMethod[method.ID], totalWeight, totalValue)
		if err != nil {
			logger.Warn("Excluding shipping method from options", map[string]interface{}{
				"method": method.Code,
				"zone":   zone.Name,
				"error":  err.Error(),
			})
			continue
		}
		options = append(options, option)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Cost.LessThan(options[j].Cost)
	})

	return ShippingCalculationResult{
		Zone:        ZoneSummary{ID: zone.ID, Name: zone.Name},
		TotalWeight: totalWeight,
		TotalValue:  totalValue,
		Options:     options,
	}
}

// methodOption computes the cost of one method for the resolved zone.
func methodOption(method *model.ShippingMethod, rate *model.ShippingRate, weight, value decimal.Decimal) (ShippingOption, error) {
	option := ShippingOption{
		MethodID:          method.ID,
		Code:              method.Code,
		Name:              method.Name,
		Type:              string(method.Type),
		MinDeliveryDays:   method.MinDeliveryDays,
		MaxDeliveryDays:   method.MaxDeliveryDays,
		HasTracking:       method.HasTracking,
		RequiresSignature: method.RequiresSignature,
		IsExpress:         method.IsExpress,
	}

	// Free shipping short-circuits before any rate lookup.
	if method.Type == model.ShippingFree ||
		(method.MinOrderAmount != nil && value.GreaterThanOrEqual(*method.MinOrderAmount)) {
		option.Cost = decimal.Zero
		option.IsFree = true
		return option, nil
	}

	if rate == nil {
		return ShippingOption{}, fmt.Errorf("no shipping rate configured for method %s", method.Code)
	}

	cost := rate.Rate
	switch method.Type {
	case model.ShippingWeightBased:
		if alt := weightBasedCost(rate.Rate, weight, method.MinWeight); alt.GreaterThan(cost) {
			cost = alt
		}
	case model.ShippingPriceBased:
		if alt := priceBasedCost(rate.Rate, value); alt.GreaterThan(cost) {
			cost = alt
		}
	}

	cost = cost.Add(method.HandlingFee).Add(rate.AdditionalFee)
	if rate.IsFree {
		cost = decimal.Zero
		option.IsFree = true
	}

	option.Cost = cost
	if rate.MinDeliveryDays > 0 {
		option.MinDeliveryDays = rate.MinDeliveryDays
	}
	if rate.MaxDeliveryDays > 0 {
		option.MaxDeliveryDays = rate.MaxDeliveryDays
	}
	return option, nil
}

func weightBasedCost(base, weight, minWeight decimal.Decimal) decimal.Decimal {
	if weight.LessThanOrEqual(minWeight) {
		return base
	}
	excess := weight.Sub(minWeight)
	return base.Add(excess.Mul(weightSurchargePerKg))
}

func priceBasedCost(base, value decimal.Decimal) decimal.Decimal {
	hundreds := value.Div(decimal.NewFromInt(100)).Floor()
	if hundreds.IsNegative() {
		return base
	}
	return base.Add(hundreds.Mul(priceSurchargePerHundred))
}

// matchShippingZone returns the first active zone covering the address, in
// priority order. Addresses are compared as-is; callers canonicalize.
func matchShippingZone(addr AddressInput, zones []model.ShippingZone) *model.ShippingZone {
	for i := range zones {
		if zoneCovers(&zones[i], addr) {
			return &zones[i]
		}
	}
	return nil
}

func zoneCovers(zone *model.ShippingZone, addr AddressInput) bool {
	if !zone.IsActive || !containsString(zone.Countries, addr.Country) {
		return false
	}
	if len(zone.States) > 0 && !containsString(zone.States, addr.State) {
		return false
	}
	if len(zone.Cities) > 0 && !containsString(zone.Cities, addr.City) {
		return false
	}
	if len(zone.PostalCodes) > 0 && !matchesPostalCode(zone.PostalCodes, addr.PostalCode) {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// matchesPostalCode checks the code against each pattern; a '*' in a pattern
// is a wildcard segment ("9*" matches every code starting with 9).
func matchesPostalCode(patterns []string, code string) bool {
	for _, pattern := range patterns {
		if !strings.Contains(pattern, "*") {
			if pattern == code {
				return true
			}
			continue
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		if re.MatchString(code) {
			return true
		}
	}
	return false
}
