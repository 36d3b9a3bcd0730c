package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AddressInput struct {
	Country    string `json:"country" binding:"required,len=2"`
	State      string `json:"state"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type TaxItemInput struct {
	ProductID  string          `json:"product_id" binding:"required"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Category   string          `json:"category"` // tax category code; backfilled from catalog when empty
	HSNCode    string          `json:"hsn_code"`
	IsDigital  bool            `json:"is_digital"`
	IsService  bool            `json:"is_service"`
}

type CalculateTaxRequest struct {
	BillingAddress       AddressInput    `json:"billing_address" binding:"required"`
	ShippingAddress      *AddressInput   `json:"shipping_address"`
	CustomerID           string          `json:"customer_id"`
	CustomerType         string          `json:"customer_type"`
	Items                []TaxItemInput  `json:"items" binding:"required,min=1,dive"`
	Subtotal             decimal.Decimal `json:"subtotal" binding:"required"`
	ShippingAmount       decimal.Decimal `json:"shipping_amount"`
	Discount             decimal.Decimal `json:"discount"`
	ExemptionCertificate string          `json:"exemption_certificate"`
}

type AppliedTaxRate struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Type   model.TaxType   `json:"type"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type ItemTaxDetail struct {
	ProductID       string           `json:"product_id"`
	Name            string           `json:"name"`
	TaxableAmount   decimal.Decimal  `json:"taxable_amount"`
	TaxAmount       decimal.Decimal  `json:"tax_amount"`
	Exempt          bool             `json:"exempt"`
	ExemptionReason string           `json:"exemption_reason,omitempty"`
	Rates           []AppliedTaxRate `json:"rates,omitempty"`
}

type TaxBreakdown struct {
	Items             []ItemTaxDetail `json:"items"`
	ShippingTax       decimal.Decimal `json:"shipping_tax"`
	ExemptionsApplied []string        `json:"exemptions_applied,omitempty"` // certificate numbers
	RulesApplied      []string        `json:"rules_applied,omitempty"`      // rule names
	RateCodes         []string        `json:"rate_codes"`
}

type TaxCalculationResult struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	Discount       decimal.Decimal `json:"discount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"` // subtotal + shipping + tax
	Breakdown      TaxBreakdown    `json:"breakdown"`
}

// --- Interface ---

type TaxCalculationService interface {
	Calculate(ctx context.Context, req CalculateTaxRequest) (TaxCalculationResult, error)
}

type taxCalculationService struct {
	rateRepo      repository.TaxRateRepository
	ruleRepo      repository.TaxRuleRepository
	exemptionRepo repository.TaxExemptionRepository
	productRepo   repository.ProductRepository
}

func NewTaxCalculationService(
	rateRepo repository.TaxRateRepository,
	ruleRepo repository.TaxRuleRepository,
	exemptionRepo repository.TaxExemptionRepository,
	productRepo repository.ProductRepository,
) TaxCalculationService {
	return &taxCalculationService{
		rateRepo:      rateRepo,
		ruleRepo:      ruleRepo,
		exemptionRepo: exemptionRepo,
		productRepo:   productRepo,
	}
}

// taxConfig bundles the read-only configuration a single calculation runs
// against. Loaded once up front; computeTax never touches the database.
type taxConfig struct {
	Rates      []model.TaxRate
	Rules      []model.TaxRule
	Exemptions []model.TaxExemption
}

func (s *taxCalculationService) Calculate(ctx context.Context, req CalculateTaxRequest) (TaxCalculationResult, error) {
	var cfg taxConfig
	var err error

	cfg.Rates, err = s.rateRepo.ListActiveByCountry(ctx, req.BillingAddress.Country)
	if err != nil {
		return TaxCalculationResult{}, fmt.Errorf("failed to load tax rates: %w", err)
	}

	cfg.Rules, err = s.ruleRepo.ListActive(ctx)
	if err != nil {
		return TaxCalculationResult{}, fmt.Errorf("failed to load tax rules: %w", err)
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, parseErr := uuid.Parse(req.CustomerID)
		if parseErr != nil {
			return TaxCalculationResult{}, fmt.Errorf("invalid customer id: %w", parseErr)
		}
		customerID = &parsed
	}

	cfg.Exemptions, err = s.exemptionRepo.ListApprovedFor(ctx, customerID, req.ExemptionCertificate)
	if err != nil {
		return TaxCalculationResult{}, fmt.Errorf("failed to load exemptions: %w", err)
	}

	if err := s.backfillItemCategories(ctx, req.Items); err != nil {
		return TaxCalculationResult{}, err
	}

	return computeTax(req, cfg, time.Now()), nil
}

// backfillItemCategories resolves the tax category of items that arrive without
// one from the product catalog. Unknown product IDs are left as-is: the item
// simply carries no category.
func (s *taxCalculationService) backfillItemCategories(ctx context.Context, items []TaxItemInput) error {
	var missing []uuid.UUID
	for _, item := range items {
		if item.Category != "" {
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

	categories := make(map[string]string, len(products))
	for _, p := range products {
		if p.TaxCategory != nil {
			categories[p.ID.String()] = string(p.TaxCategory.Code)
		}
	}
	for i := range items {
		if items[i].Category == "" {
			items[i].Category = categories[items[i].ProductID]
		}
	}
	return nil
}

// computeTax is the pure calculation core: no I/O, no clock reads beyond the
// supplied reference time.
func computeTax(req CalculateTaxRequest, cfg taxConfig, now time.Time) TaxCalculationResult {
	rates := matchTaxRates(req.BillingAddress, cfg.Rates, now)

	breakdown := TaxBreakdown{
		Items:       make([]ItemTaxDetail, 0, len(req.Items)),
		ShippingTax: decimal.Zero,
	}
	for _, rate := range rates {
		breakdown.RateCodes = append(breakdown.RateCodes, rate.Code)
	}

	exemptionsSeen := make(map[string]bool)
	totalTax := decimal.Zero

	for _, item := range req.Items {
		detail := ItemTaxDetail{
			ProductID:     item.ProductID,
			Name:          item.Name,
			TaxableAmount: lineTotal(item),
			TaxAmount:     decimal.Zero,
		}

		// Exempt items short-circuit: no rate is applied at all.
		if cert, ok := exemptionFor(item, cfg.Exemptions, now); ok {
			detail.Exempt = true
			detail.ExemptionReason = "exemption certificate " + cert
			if !exemptionsSeen[cert] {
				exemptionsSeen[cert] = true
				breakdown.ExemptionsApplied = append(breakdown.ExemptionsApplied, cert)
			}
			breakdown.Items = append(breakdown.Items, detail)
			continue
		}

		for _, rate := range rates {
			amount := taxAmountFor(detail.TaxableAmount, rate)
			if amount.IsZero() {
				continue
			}
			detail.TaxAmount = detail.TaxAmount.Add(amount)
			detail.Rates = append(detail.Rates, AppliedTaxRate{
				Code:   rate.Code,
				Name:   rate.Name,
				Type:   rate.Type,
				Rate:   rate.Rate,
				Amount: amount,
			})
		}

		totalTax = totalTax.Add(detail.TaxAmount)
		breakdown.Items = append(breakdown.Items, detail)
	}

	// Shipping tax: only rates flagged as shipping-taxable contribute.
	if req.ShippingAmount.IsPositive() {
		for _, rate := range rates {
			if !rate.IsShippingTaxable {
				continue
			}
			breakdown.ShippingTax = breakdown.ShippingTax.Add(taxAmountFor(req.ShippingAmount, rate))
		}
		totalTax = totalTax.Add(breakdown.ShippingTax)
	}

	// Fold qualifying rule actions over the running total.
	ruleCtx := buildRuleContext(req)
	qualifying := qualifyingRules(cfg.Rules, ruleCtx)
	for _, rule := range qualifying {
		breakdown.RulesApplied = append(breakdown.RulesApplied, rule.Name)
	}
	totalTax = applyRuleActions(totalTax, req.Subtotal, qualifying)

	if totalTax.IsNegative() {
		totalTax = decimal.Zero
	}

	return TaxCalculationResult{
		Subtotal:       req.Subtotal,
		ShippingAmount: req.ShippingAmount,
		Discount:       req.Discount,
		TaxAmount:      totalTax,
		TotalAmount:    req.Subtotal.Add(req.ShippingAmount).Add(totalTax),
		Breakdown:      breakdown,
	}
}

func lineTotal(item TaxItemInput) decimal.Decimal {
	if !item.TotalPrice.IsZero() {
		return item.TotalPrice
	}
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// matchTaxRates returns every active, date-effective rate whose geographic
// scope covers the address. This is a superset match: a country-level VAT and
// a state-level surcharge both apply at once. Order is priority desc then rate
// desc (the repository query order, re-asserted here for callers that pass
// unsorted slices).
func matchTaxRates(addr AddressInput, rates []model.TaxRate, now time.Time) []model.TaxRate {
	matched := make([]model.TaxRate, 0, len(rates))
	for _, rate := range rates {
		if !rate.IsActive || rate.Country != addr.Country || !rate.EffectiveAt(now) {
			continue
		}
		if rate.State != nil && *rate.State != addr.State {
			continue
		}
		if rate.City != nil && *rate.City != addr.City {
			continue
		}
		if rate.PostalCode != nil && *rate.PostalCode != addr.PostalCode {
			continue
		}
		matched = append(matched, rate)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].Rate.GreaterThan(matched[j].Rate)
	})
	return matched
}

// taxAmountFor computes one rate's contribution for a monetary amount.
// Below the minimum the rate contributes nothing; above the maximum the taxed
// base is clamped (the output is not).
func taxAmountFor(amount decimal.Decimal, rate model.TaxRate) decimal.Decimal {
	if amount.LessThan(rate.MinimumAmount) {
		return decimal.Zero
	}

	base := amount
	if rate.MaximumAmount != nil && amount.GreaterThan(*rate.MaximumAmount) {
		base = *rate.MaximumAmount
	}

	switch rate.CalculationType {
	case model.TaxCalcPercentage:
		return base.Mul(rate.Rate)
	case model.TaxCalcFixedAmount:
		return rate.FixedAmount
	case model.TaxCalcCompound:
		return base.Mul(rate.Rate).Add(rate.FixedAmount)
	}
	return decimal.Zero
}

// exemptionFor returns the certificate number of the first usable exemption
// covering the item, if any. A certificate that names no products and no
// categories is a blanket exemption and covers every item.
func exemptionFor(item TaxItemInput, exemptions []model.TaxExemption, now time.Time) (string, bool) {
	for i := range exemptions {
		e := &exemptions[i]
		if !e.Applies(now) {
			continue
		}
		blanket := len(e.ApplicableProducts) == 0 && len(e.ApplicableCategories) == 0
		if blanket || e.CoversProduct(item.ProductID) || (item.Category != "" && e.CoversCategory(item.Category)) {
			return e.CertificateNumber, true
		}
	}
	return "", false
}

// --- Rule evaluation ---

// RuleContext is the closed set of order attributes a rule condition may
// inspect. Fields resolve through typed accessors, not string-keyed maps.
type RuleContext struct {
	CustomerType   string
	OrderSubtotal  decimal.Decimal
	ShippingAmount decimal.Decimal
	BillingCountry string
	BillingState   string
	BillingCity    string
	ItemCount      int
	ItemTotal      decimal.Decimal
}

func buildRuleContext(req CalculateTaxRequest) RuleContext {
	itemCount := 0
	itemTotal := decimal.Zero
	for _, item := range req.Items {
		itemCount += item.Quantity
		itemTotal = itemTotal.Add(lineTotal(item))
	}
	return RuleContext{
		CustomerType:   req.CustomerType,
		OrderSubtotal:  req.Subtotal,
		ShippingAmount: req.ShippingAmount,
		BillingCountry: req.BillingAddress.Country,
		BillingState:   req.BillingAddress.State,
		BillingCity:    req.BillingAddress.City,
		ItemCount:      itemCount,
		ItemTotal:      itemTotal,
	}
}

// fieldValue is a resolved context field: textual form always present, numeric
// form only when the field is numeric.
type fieldValue struct {
	text    string
	num     decimal.Decimal
	numeric bool
}

func textValue(s string) fieldValue { return fieldValue{text: s} }

func numValue(d decimal.Decimal) fieldValue {
	return fieldValue{text: d.String(), num: d, numeric: true}
}

// resolveRuleField dispatches exhaustively over the closed field set; an
// unknown field is an explicit error, never a silent nil.
func resolveRuleField(field model.RuleField, ctx RuleContext) (fieldValue, error) {
	switch field {
	case model.FieldCustomerType:
		return textValue(ctx.CustomerType), nil
	case model.FieldOrderSubtotal:
		return numValue(ctx.OrderSubtotal), nil
	case model.FieldShippingAmount:
		return numValue(ctx.ShippingAmount), nil
	case model.FieldBillingCountry:
		return textValue(ctx.BillingCountry), nil
	case model.FieldBillingState:
		return textValue(ctx.BillingState), nil
	case model.FieldBillingCity:
		return textValue(ctx.BillingCity), nil
	case model.FieldItemCount:
		return numValue(decimal.NewFromInt(int64(ctx.ItemCount))), nil
	case model.FieldItemTotal:
		return numValue(ctx.ItemTotal), nil
	}
	return fieldValue{}, fmt.Errorf("unknown rule field %q", field)
}

// evaluateCondition evaluates one (field, operator, value) triple against the
// context. Unknown operators and type mismatches surface as errors; the caller
// decides what a failed evaluation means for the rule.
func evaluateCondition(cond model.TaxRuleCondition, ctx RuleContext) (bool, error) {
	val, err := resolveRuleField(cond.Field, ctx)
	if err != nil {
		return false, err
	}

	switch cond.Operator {
	case model.OpEquals:
		return valueEquals(val, cond.Value), nil
	case model.OpNotEquals:
		return !valueEquals(val, cond.Value), nil
	case model.OpGreaterThan:
		cmp, err := numericCmp(val, cond.Value)
		return cmp > 0, err
	case model.OpLessThan:
		cmp, err := numericCmp(val, cond.Value)
		return cmp < 0, err
	case model.OpGreaterEqual:
		cmp, err := numericCmp(val, cond.Value)
		return cmp >= 0, err
	case model.OpLessEqual:
		cmp, err := numericCmp(val, cond.Value)
		return cmp <= 0, err
	case model.OpContains:
		return strings.Contains(val.text, cond.Value), nil
	case model.OpNotContains:
		return !strings.Contains(val.text, cond.Value), nil
	case model.OpIn:
		return valueIn(val, cond.Value), nil
	case model.OpNotIn:
		return !valueIn(val, cond.Value), nil
	case model.OpBetween:
		ok, err := valueBetween(val, cond.Value, cond.Value2)
		return ok, err
	case model.OpNotBetween:
		ok, err := valueBetween(val, cond.Value, cond.Value2)
		return !ok, err
	}
	return false, fmt.Errorf("unknown condition operator %q", cond.Operator)
}

func valueEquals(val fieldValue, raw string) bool {
	if val.numeric {
		if other, err := decimal.NewFromString(raw); err == nil {
			return val.num.Equal(other)
		}
	}
	return val.text == raw
}

func numericCmp(val fieldValue, raw string) (int, error) {
	if !val.numeric {
		return 0, fmt.Errorf("numeric comparison against non-numeric field value %q", val.text)
	}
	other, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric condition value %q: %w", raw, err)
	}
	return val.num.Cmp(other), nil
}

// valueIn treats the condition value as a comma-separated list
func valueIn(val fieldValue, raw string) bool {
	for _, candidate := range strings.Split(raw, ",") {
		if valueEquals(val, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

// valueBetween is inclusive on both bounds
func valueBetween(val fieldValue, low string, high *string) (bool, error) {
	if high == nil {
		return false, fmt.Errorf("BETWEEN condition missing upper bound")
	}
	lowCmp, err := numericCmp(val, low)
	if err != nil {
		return false, err
	}
	highCmp, err := numericCmp(val, *high)
	if err != nil {
		return false, err
	}
	return lowCmp >= 0 && highCmp <= 0, nil
}

// qualifyingRules returns the rules whose conditions ALL evaluate true, in
// descending priority order. A rule whose condition fails to evaluate (bad
// config that slipped past validation) is skipped with a warning rather than
// silently treated as false.
func qualifyingRules(rules []model.TaxRule, ctx RuleContext) []model.TaxRule {
	qualified := make([]model.TaxRule, 0, len(rules))

	for _, rule := range rules {
		if !rule.IsActive || len(rule.Conditions) == 0 {
			continue
		}
		applies := true
		for _, cond := range rule.Conditions {
			ok, err := evaluateCondition(cond, ctx)
			if err != nil {
				logger.Warn("Skipping tax rule with unevaluable condition", map[string]interface{}{
					"rule":  rule.Name,
					"error": err.Error(),
				})
				applies = false
				break
			}
			if !ok {
				applies = false
				break
			}
		}
		if applies {
			qualified = append(qualified, rule)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Priority > qualified[j].Priority
	})
	return qualified
}

// applyRuleActions folds every action of every qualifying rule into the
// running total. SET_TAX_RATE is destructive: it discards the accumulated
// total and restarts from subtotal * value.
func applyRuleActions(total, subtotal decimal.Decimal, rules []model.TaxRule) decimal.Decimal {
	for _, rule := range rules {
		actions := append([]model.TaxRuleAction(nil), rule.Actions...)
		sort.SliceStable(actions, func(i, j int) bool {
			return actions[i].Priority < actions[j].Priority
		})

		for _, action := range actions {
			switch action.Action {
			case model.ActionSetTaxRate:
				total = subtotal.Mul(action.Value)
			case model.ActionAddTaxAmount:
				total = total.Add(action.Value)
			case model.ActionSubtractTaxAmount:
				total = total.Sub(action.Value)
			case model.ActionMultiplyTax:
				total = total.Mul(action.Value)
			case model.ActionSetMaxTax:
				if total.GreaterThan(action.Value) {
					total = action.Value
				}
			case model.ActionSetMinTax:
				if total.LessThan(action.Value) {
					total = action.Value
				}
			default:
				// Unknown actions are rejected at rule creation; reaching this
				// means stale config, so leave the total untouched and warn.
				logger.Warn("Ignoring unknown tax rule action", map[string]interface{}{
					"rule":   rule.Name,
					"action": string(action.Action),
				})
			}
		}
	}

	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
