package service

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func percentRate(code, country string, rate string, priority int) model.TaxRate {
	return model.TaxRate{
		ID:              uuid.New(),
		Code:            code,
		Name:            code,
		Type:            model.TaxTypeSales,
		CalculationType: model.TaxCalcPercentage,
		Rate:            dec(rate),
		Country:         country,
		Priority:        priority,
		IsActive:        true,
	}
}

func singleItemRequest(subtotal string) CalculateTaxRequest {
	return CalculateTaxRequest{
		BillingAddress: AddressInput{Country: "US", State: "CA", City: "Los Angeles", PostalCode: "90001"},
		Items: []TaxItemInput{
			{ProductID: uuid.NewString(), Name: "Widget", Quantity: 1, UnitPrice: dec(subtotal)},
		},
		Subtotal: dec(subtotal),
	}
}

func TestComputeTaxPercentage(t *testing.T) {
	cfg := taxConfig{Rates: []model.TaxRate{percentRate("CA-SALES", "US", "0.0825", 0)}}
	req := singleItemRequest("100")

	result := computeTax(req, cfg, time.Now())

	assert.True(t, result.TaxAmount.Equal(dec("8.25")), "tax = %s", result.TaxAmount)
	assert.True(t, result.TotalAmount.Equal(dec("108.25")), "total = %s", result.TotalAmount)
	require.Len(t, result.Breakdown.Items, 1)
	assert.False(t, result.Breakdown.Items[0].Exempt)
	assert.Equal(t, []string{"CA-SALES"}, result.Breakdown.RateCodes)
}

func TestComputeTaxStacksMultipleRates(t *testing.T) {
	state := percentRate("CA-STATE", "US", "0.06", 10)
	state.State = strPtr("CA")
	county := percentRate("LA-COUNTY", "US", "0.0225", 5)
	county.State = strPtr("CA")
	county.City = strPtr("Los Angeles")

	cfg := taxConfig{Rates: []model.TaxRate{county, state}}
	result := computeTax(singleItemRequest("100"), cfg, time.Now())

	assert.True(t, result.TaxAmount.Equal(dec("8.25")), "tax = %s", result.TaxAmount)
	// Higher priority first regardless of input order
	assert.Equal(t, []string{"CA-STATE", "LA-COUNTY"}, result.Breakdown.RateCodes)
}

func TestComputeTaxSkipsForeignAndInactiveRates(t *testing.T) {
	foreign := percentRate("DE-VAT", "DE", "0.19", 0)
	inactive := percentRate("OLD-SALES", "US", "0.05", 0)
	inactive.IsActive = false

	cfg := taxConfig{Rates: []model.TaxRate{foreign, inactive}}
	result := computeTax(singleItemRequest("100"), cfg, time.Now())

	assert.True(t, result.TaxAmount.IsZero())
	assert.Empty(t, result.Breakdown.Items[0].Rates)
}

func TestComputeTaxRateScopeMismatch(t *testing.T) {
	rate := percentRate("NY-SALES", "US", "0.08", 0)
	rate.State = strPtr("NY")

	cfg := taxConfig{Rates: []model.TaxRate{rate}}
	result := computeTax(singleItemRequest("100"), cfg, time.Now())

	assert.True(t, result.TaxAmount.IsZero())
}

func TestComputeTaxDateWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	future := percentRate("FUTURE", "US", "0.10", 0)
	from := now.AddDate(0, 1, 0)
	future.EffectiveFrom = &from

	expired := percentRate("EXPIRED", "US", "0.10", 0)
	to := now.AddDate(0, -1, 0)
	expired.EffectiveTo = &to

	current := percentRate("CURRENT", "US", "0.05", 0)

	cfg := taxConfig{Rates: []model.TaxRate{future, expired, current}}
	result := computeTax(singleItemRequest("100"), cfg, now)

	assert.Equal(t, []string{"CURRENT"}, result.Breakdown.RateCodes)
	assert.True(t, result.TaxAmount.Equal(dec("5")))
}

func TestTaxAmountForMinimumAndMaximum(t *testing.T) {
	rate := percentRate("CAPPED", "US", "0.10", 0)
	rate.MinimumAmount = dec("50")
	rate.MaximumAmount = decPtr("1000")

	assert.True(t, taxAmountFor(dec("49.99"), rate).IsZero(), "below minimum contributes nothing")
	assert.True(t, taxAmountFor(dec("50"), rate).Equal(dec("5")), "minimum is inclusive")
	assert.True(t, taxAmountFor(dec("500"), rate).Equal(dec("50")))
	assert.True(t, taxAmountFor(dec("5000"), rate).Equal(dec("100")), "taxed base clamps at maximum")
}

func TestTaxAmountForFixedAndCompound(t *testing.T) {
	fixed := model.TaxRate{
		CalculationType: model.TaxCalcFixedAmount,
		FixedAmount:     dec("2.50"),
	}
	assert.True(t, taxAmountFor(dec("10"), fixed).Equal(dec("2.50")))

	compound := model.TaxRate{
		CalculationType: model.TaxCalcCompound,
		Rate:            dec("0.05"),
		FixedAmount:     dec("1"),
	}
	assert.True(t, taxAmountFor(dec("100"), compound).Equal(dec("6")))
}

func TestComputeTaxShippingTaxable(t *testing.T) {
	taxable := percentRate("SHIP-TAX", "US", "0.10", 0)
	taxable.IsShippingTaxable = true
	exemptShipping := percentRate("NO-SHIP", "US", "0.05", 0)

	cfg := taxConfig{Rates: []model.TaxRate{taxable, exemptShipping}}
	req := singleItemRequest("100")
	req.ShippingAmount = dec("20")

	result := computeTax(req, cfg, time.Now())

	// Items: 100 * (0.10 + 0.05) = 15; shipping: 20 * 0.10 = 2
	assert.True(t, result.Breakdown.ShippingTax.Equal(dec("2")), "shipping tax = %s", result.Breakdown.ShippingTax)
	assert.True(t, result.TaxAmount.Equal(dec("17")))
	assert.True(t, result.TotalAmount.Equal(dec("137")))
}

func TestComputeTaxExemptCustomer(t *testing.T) {
	cfg := taxConfig{
		Rates: []model.TaxRate{percentRate("CA-SALES", "US", "0.0825", 0)},
		Exemptions: []model.TaxExemption{{
			CertificateNumber: "CERT-001",
			Status:            model.ExemptionApproved,
			IsActive:          true,
		}},
	}

	result := computeTax(singleItemRequest("100"), cfg, time.Now())

	assert.True(t, result.TaxAmount.IsZero())
	require.Len(t, result.Breakdown.Items, 1)
	assert.True(t, result.Breakdown.Items[0].Exempt)
	assert.Contains(t, result.Breakdown.Items[0].ExemptionReason, "CERT-001")
	assert.Equal(t, []string{"CERT-001"}, result.Breakdown.ExemptionsApplied)
}

func TestComputeTaxCategoryScopedExemption(t *testing.T) {
	cfg := taxConfig{
		Rates: []model.TaxRate{percentRate("CA-SALES", "US", "0.10", 0)},
		Exemptions: []model.TaxExemption{{
			CertificateNumber:    "CERT-FOOD",
			Status:               model.ExemptionApproved,
			IsActive:             true,
			ApplicableCategories: []string{"FOOD"},
		}},
	}

	req := CalculateTaxRequest{
		BillingAddress: AddressInput{Country: "US"},
		Items: []TaxItemInput{
			{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: dec("40"), Category: "FOOD"},
			{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: dec("60"), Category: "GENERAL"},
		},
		Subtotal: dec("100"),
	}

	result := computeTax(req, cfg, time.Now())

	require.Len(t, result.Breakdown.Items, 2)
	assert.True(t, result.Breakdown.Items[0].Exempt)
	assert.False(t, result.Breakdown.Items[1].Exempt)
	assert.True(t, result.TaxAmount.Equal(dec("6")), "only the general item is taxed")
}

func TestComputeTaxUnapprovedExemptionIgnored(t *testing.T) {
	cfg := taxConfig{
		Rates: []model.TaxRate{percentRate("CA-SALES", "US", "0.10", 0)},
		Exemptions: []model.TaxExemption{{
			CertificateNumber: "CERT-PENDING",
			Status:            model.ExemptionPending,
			IsActive:          true,
		}},
	}

	result := computeTax(singleItemRequest("100"), cfg, time.Now())
	assert.True(t, result.TaxAmount.Equal(dec("10")))
}

func TestLineTotalPrefersTotalPrice(t *testing.T) {
	item := TaxItemInput{Quantity: 3, UnitPrice: dec("10"), TotalPrice: dec("27")}
	assert.True(t, lineTotal(item).Equal(dec("27")))

	item.TotalPrice = decimal.Zero
	assert.True(t, lineTotal(item).Equal(dec("30")))
}

// --- Rule condition evaluation ---

func ruleCtx() RuleContext {
	return RuleContext{
		CustomerType:   "WHOLESALE",
		OrderSubtotal:  dec("250"),
		ShippingAmount: dec("15"),
		BillingCountry: "US",
		BillingState:   "CA",
		BillingCity:    "Los Angeles",
		ItemCount:      7,
		ItemTotal:      dec("250"),
	}
}

func TestEvaluateConditionOperators(t *testing.T) {
	tests := []struct {
		name     string
		cond     model.TaxRuleCondition
		expected bool
	}{
		{"equals text", model.TaxRuleCondition{Field: model.FieldCustomerType, Operator: model.OpEquals, Value: "WHOLESALE"}, true},
		{"equals numeric normalizes", model.TaxRuleCondition{Field: model.FieldOrderSubtotal, Operator: model.OpEquals, Value: "250.00"}, true},
		{"not equals", model.TaxRuleCondition{Field: model.FieldCustomerType, Operator: model.OpNotEquals, Value: "RETAIL"}, true},
		{"greater than", model.TaxRuleCondition{Field: model.FieldOrderSubtotal, Operator: model.OpGreaterThan, Value: "200"}, true},
		{"greater than false at equal", model.TaxRuleCondition{Field: model.FieldOrderSubtotal, Operator: model.OpGreaterThan, Value: "250"}, false},
		{"greater equal at boundary", model.TaxRuleCondition{Field: model.FieldOrderSubtotal, Operator: model.OpGreaterEqual, Value: "250"}, true},
		{"less than", model.TaxRuleCondition{Field: model.FieldShippingAmount, Operator: model.OpLessThan, Value: "20"}, true},
		{"less equal at boundary", model.TaxRuleCondition{Field: model.FieldShippingAmount, Operator: model.OpLessEqual, Value: "15"}, true},
		{"contains", model.TaxRuleCondition{Field: model.FieldBillingCity, Operator: model.OpContains, Value: "Angeles"}, true},
		{"not contains", model.TaxRuleCondition{Field: model.FieldBillingCity, Operator: model.OpNotContains, Value: "York"}, true},
		{"in list", model.TaxRuleCondition{Field: model.FieldBillingState, Operator: model.OpIn, Value: "CA, NY, WA"}, true},
		{"not in list", model.TaxRuleCondition{Field: model.FieldBillingState, Operator: model.OpNotIn, Value: "TX, FL"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evaluateCondition(tc.cond, ruleCtx())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEvaluateConditionBetweenInclusive(t *testing.T) {
	cond := model.TaxRuleCondition{
		Field:    model.FieldItemCount,
		Operator: model.OpBetween,
		Value:    "5",
		Value2:   strPtr("10"),
	}

	for count, expected := range map[int]bool{4: false, 5: true, 7: true, 10: true, 11: false} {
		ctx := ruleCtx()
		ctx.ItemCount = count
		got, err := evaluateCondition(cond, ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "item_count=%d", count)
	}
}

func TestEvaluateConditionBetweenMissingUpperBound(t *testing.T) {
	cond := model.TaxRuleCondition{Field: model.FieldItemCount, Operator: model.OpBetween, Value: "5"}
	_, err := evaluateCondition(cond, ruleCtx())
	assert.Error(t, err)
}

func TestEvaluateConditionUnknownOperator(t *testing.T) {
	cond := model.TaxRuleCondition{Field: model.FieldItemCount, Operator: "REGEX_MATCH", Value: "5"}
	_, err := evaluateCondition(cond, ruleCtx())
	assert.Error(t, err)
}

func TestEvaluateConditionNumericAgainstText(t *testing.T) {
	cond := model.TaxRuleCondition{Field: model.FieldCustomerType, Operator: model.OpGreaterThan, Value: "5"}
	_, err := evaluateCondition(cond, ruleCtx())
	assert.Error(t, err)
}

func TestQualifyingRulesSkipsUnevaluable(t *testing.T) {
	broken := model.TaxRule{
		Name:     "broken",
		IsActive: true,
		Priority: 100,
		Conditions: []model.TaxRuleCondition{
			{Field: model.FieldItemCount, Operator: "REGEX_MATCH", Value: "5"},
		},
	}
	good := model.TaxRule{
		Name:     "good",
		IsActive: true,
		Priority: 1,
		Conditions: []model.TaxRuleCondition{
			{Field: model.FieldOrderSubtotal, Operator: model.OpGreaterThan, Value: "100"},
		},
	}

	qualified := qualifyingRules([]model.TaxRule{broken, good}, ruleCtx())

	require.Len(t, qualified, 1)
	assert.Equal(t, "good", qualified[0].Name)
}

func TestQualifyingRulesRequiresAllConditions(t *testing.T) {
	rule := model.TaxRule{
		Name:     "partial",
		IsActive: true,
		Conditions: []model.TaxRuleCondition{
			{Field: model.FieldCustomerType, Operator: model.OpEquals, Value: "WHOLESALE"},
			{Field: model.FieldOrderSubtotal, Operator: model.OpGreaterThan, Value: "1000"},
		},
	}

	assert.Empty(t, qualifyingRules([]model.TaxRule{rule}, ruleCtx()))
}

func TestQualifyingRulesPriorityOrder(t *testing.T) {
	low := model.TaxRule{
		Name: "low", IsActive: true, Priority: 1,
		Conditions: []model.TaxRuleCondition{{Field: model.FieldBillingCountry, Operator: model.OpEquals, Value: "US"}},
	}
	high := model.TaxRule{
		Name: "high", IsActive: true, Priority: 50,
		Conditions: []model.TaxRuleCondition{{Field: model.FieldBillingCountry, Operator: model.OpEquals, Value: "US"}},
	}

	qualified := qualifyingRules([]model.TaxRule{low, high}, ruleCtx())

	require.Len(t, qualified, 2)
	assert.Equal(t, "high", qualified[0].Name)
	assert.Equal(t, "low", qualified[1].Name)
}

// --- Rule action folding ---

func TestApplyRuleActionsSetTaxRateIsDestructive(t *testing.T) {
	rule := model.TaxRule{
		Name: "override",
		Actions: []model.TaxRuleAction{
			{Action: model.ActionSetTaxRate, Value: dec("0.05")},
		},
	}

	total := applyRuleActions(dec("42"), dec("200"), []model.TaxRule{rule})
	assert.True(t, total.Equal(dec("10")), "accumulated total is discarded, restarts from subtotal * value")
}

func TestApplyRuleActionsArithmetic(t *testing.T) {
	rule := model.TaxRule{
		Name: "adjust",
		Actions: []model.TaxRuleAction{
			{Action: model.ActionAddTaxAmount, Value: dec("5"), Priority: 1},
			{Action: model.ActionMultiplyTax, Value: dec("2"), Priority: 2},
			{Action: model.ActionSubtractTaxAmount, Value: dec("3"), Priority: 3},
		},
	}

	// (10 + 5) * 2 - 3 = 27, actions fold in priority order
	total := applyRuleActions(dec("10"), dec("100"), []model.TaxRule{rule})
	assert.True(t, total.Equal(dec("27")), "total = %s", total)
}

func TestApplyRuleActionsClamps(t *testing.T) {
	capRule := model.TaxRule{
		Name:    "cap",
		Actions: []model.TaxRuleAction{{Action: model.ActionSetMaxTax, Value: dec("20")}},
	}
	assert.True(t, applyRuleActions(dec("35"), dec("100"), []model.TaxRule{capRule}).Equal(dec("20")))
	assert.True(t, applyRuleActions(dec("15"), dec("100"), []model.TaxRule{capRule}).Equal(dec("15")))

	floorRule := model.TaxRule{
		Name:    "floor",
		Actions: []model.TaxRuleAction{{Action: model.ActionSetMinTax, Value: dec("5")}},
	}
	assert.True(t, applyRuleActions(dec("2"), dec("100"), []model.TaxRule{floorRule}).Equal(dec("5")))
}

func TestApplyRuleActionsNeverNegative(t *testing.T) {
	rule := model.TaxRule{
		Name:    "over-subtract",
		Actions: []model.TaxRuleAction{{Action: model.ActionSubtractTaxAmount, Value: dec("100")}},
	}

	total := applyRuleActions(dec("10"), dec("100"), []model.TaxRule{rule})
	assert.True(t, total.IsZero())
}

func TestComputeTaxWithQualifyingRule(t *testing.T) {
	cfg := taxConfig{
		Rates: []model.TaxRate{percentRate("CA-SALES", "US", "0.10", 0)},
		Rules: []model.TaxRule{{
			Name:     "wholesale discount",
			IsActive: true,
			Conditions: []model.TaxRuleCondition{
				{Field: model.FieldCustomerType, Operator: model.OpEquals, Value: "WHOLESALE"},
			},
			Actions: []model.TaxRuleAction{
				{Action: model.ActionMultiplyTax, Value: dec("0.5")},
			},
		}},
	}

	req := singleItemRequest("100")
	req.CustomerType = "WHOLESALE"

	result := computeTax(req, cfg, time.Now())

	assert.True(t, result.TaxAmount.Equal(dec("5")), "tax halved by rule: %s", result.TaxAmount)
	assert.Equal(t, []string{"wholesale discount"}, result.Breakdown.RulesApplied)

	// Retail customers do not qualify
	req.CustomerType = "RETAIL"
	result = computeTax(req, cfg, time.Now())
	assert.True(t, result.TaxAmount.Equal(dec("10")))
	assert.Empty(t, result.Breakdown.RulesApplied)
}
