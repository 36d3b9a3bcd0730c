package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usZone(name string) model.ShippingZone {
	return model.ShippingZone{
		ID:        uuid.New(),
		Name:      name,
		Countries: []string{"US"},
		IsActive:  true,
	}
}

func flatMethod(code string, rate *model.ShippingRate) (model.ShippingMethod, model.ShippingRate) {
	method := model.ShippingMethod{
		ID:              uuid.New(),
		Code:            code,
		Name:            code,
		Type:            model.ShippingFlatRate,
		MinDeliveryDays: 3,
		MaxDeliveryDays: 7,
		IsActive:        true,
	}
	r := model.ShippingRate{MethodID: method.ID, IsActive: true}
	if rate != nil {
		r = *rate
		r.MethodID = method.ID
	}
	return method, r
}

func shippingRequest(weight, price string) CalculateShippingRequest {
	return CalculateShippingRequest{
		Address: AddressInput{Country: "US", State: "CA", City: "Los Angeles", PostalCode: "90210"},
		Items: []ShippingItemInput{
			{ProductID: uuid.NewString(), Quantity: 1, Weight: dec(weight), Price: dec(price)},
		},
	}
}

func TestComputeShippingFlatRate(t *testing.T) {
	zone := usZone("Domestic")
	method, rate := flatMethod("STANDARD", &model.ShippingRate{
		Rate:          dec("9.99"),
		AdditionalFee: dec("1"),
		IsActive:      true,
	})
	method.HandlingFee = dec("2")

	result := computeShipping(shippingRequest("1", "50"), &zone,
		[]model.ShippingMethod{method}, []model.ShippingRate{rate})

	require.Len(t, result.Options, 1)
	opt := result.Options[0]
	assert.True(t, opt.Cost.Equal(dec("12.99")), "rate + handling + additional fee: %s", opt.Cost)
	assert.False(t, opt.IsFree)
	assert.Equal(t, 3, opt.MinDeliveryDays)
	assert.Equal(t, 7, opt.MaxDeliveryDays)
}

func TestComputeShippingFreeThreshold(t *testing.T) {
	zone := usZone("Domestic")
	method, rate := flatMethod("STANDARD", &model.ShippingRate{Rate: dec("9.99"), IsActive: true})
	method.MinOrderAmount = decPtr("100")

	req := shippingRequest("1", "150")
	result := computeShipping(req, &zone, []model.ShippingMethod{method}, []model.ShippingRate{rate})

	require.Len(t, result.Options, 1)
	assert.True(t, result.Options[0].Cost.IsZero())
	assert.True(t, result.Options[0].IsFree)

	// Below the threshold the rate applies
	req = shippingRequest("1", "99.99")
	result = computeShipping(req, &zone, []model.ShippingMethod{method}, []model.ShippingRate{rate})
	require.Len(t, result.Options, 1)
	assert.False(t, result.Options[0].IsFree)
	assert.True(t, result.Options[0].Cost.Equal(dec("9.99")))
}

func TestComputeShippingFreeMethodNeedsNoRate(t *testing.T) {
	zone := usZone("Domestic")
	method := model.ShippingMethod{
		ID:       uuid.New(),
		Code:     "FREE",
		Type:     model.ShippingFree,
		IsActive: true,
	}

	result := computeShipping(shippingRequest("1", "10"), &zone, []model.ShippingMethod{method}, nil)

	require.Len(t, result.Options, 1)
	assert.True(t, result.Options[0].IsFree)
}

func TestComputeShippingExcludesMethodWithoutRate(t *testing.T) {
	zone := usZone("Domestic")
	withRate, rate := flatMethod("STANDARD", &model.ShippingRate{Rate: dec("5"), IsActive: true})
	orphan, _ := flatMethod("EXPRESS", nil)

	result := computeShipping(shippingRequest("1", "50"), &zone,
		[]model.ShippingMethod{withRate, orphan}, []model.ShippingRate{rate})

	require.Len(t, result.Options, 1, "method without a rate row is excluded, not fatal")
	assert.Equal(t, "STANDARD", result.Options[0].Code)
}

func TestComputeShippingOptionsSortedByCost(t *testing.T) {
	zone := usZone("Domestic")
	cheap, cheapRate := flatMethod("ECONOMY", &model.ShippingRate{Rate: dec("4.99"), IsActive: true})
	pricey, priceyRate := flatMethod("EXPRESS", &model.ShippingRate{Rate: dec("24.99"), IsActive: true})

	result := computeShipping(shippingRequest("1", "50"), &zone,
		[]model.ShippingMethod{pricey, cheap}, []model.ShippingRate{priceyRate, cheapRate})

	require.Len(t, result.Options, 2)
	assert.Equal(t, "ECONOMY", result.Options[0].Code)
	assert.Equal(t, "EXPRESS", result.Options[1].Code)
}

func TestWeightBasedCostMonotonic(t *testing.T) {
	base := dec("10")
	minWeight := dec("2")

	prev := weightBasedCost(base, dec("0"), minWeight)
	for _, w := range []string{"1", "2", "3", "5", "10", "25"} {
		cost := weightBasedCost(base, dec(w), minWeight)
		assert.True(t, cost.GreaterThanOrEqual(prev), "cost must not decrease with weight (w=%s)", w)
		prev = cost
	}

	// 3kg over a 2kg floor: 10 + 1 * 1.50
	assert.True(t, weightBasedCost(base, dec("3"), minWeight).Equal(dec("11.50")))
}

func TestPriceBasedCost(t *testing.T) {
	base := dec("5")

	assert.True(t, priceBasedCost(base, dec("99.99")).Equal(dec("5")))
	assert.True(t, priceBasedCost(base, dec("100")).Equal(dec("7")), "one full hundred adds one surcharge")
	assert.True(t, priceBasedCost(base, dec("250")).Equal(dec("9")))
}

func TestComputeShippingRateDeliveryDaysOverride(t *testing.T) {
	zone := usZone("Domestic")
	method, rate := flatMethod("STANDARD", &model.ShippingRate{
		Rate:            dec("5"),
		MinDeliveryDays: 1,
		MaxDeliveryDays: 2,
		IsActive:        true,
	})

	result := computeShipping(shippingRequest("1", "50"), &zone,
		[]model.ShippingMethod{method}, []model.ShippingRate{rate})

	require.Len(t, result.Options, 1)
	assert.Equal(t, 1, result.Options[0].MinDeliveryDays)
	assert.Equal(t, 2, result.Options[0].MaxDeliveryDays)
}

// --- Zone matching ---

func TestMatchShippingZoneFirstMatchWins(t *testing.T) {
	california := usZone("California")
	california.States = []string{"CA"}
	domestic := usZone("Domestic")

	addr := AddressInput{Country: "US", State: "CA"}
	zone := matchShippingZone(addr, []model.ShippingZone{california, domestic})

	require.NotNil(t, zone)
	assert.Equal(t, "California", zone.Name)
}

func TestMatchShippingZoneNoMatch(t *testing.T) {
	zone := usZone("Domestic")
	addr := AddressInput{Country: "CA", State: "ON"}

	assert.Nil(t, matchShippingZone(addr, []model.ShippingZone{zone}))
}

func TestMatchShippingZoneSkipsInactive(t *testing.T) {
	inactive := usZone("Disabled")
	inactive.IsActive = false

	addr := AddressInput{Country: "US"}
	assert.Nil(t, matchShippingZone(addr, []model.ShippingZone{inactive}))
}

func TestZoneCoversNarrowingFields(t *testing.T) {
	zone := usZone("West LA")
	zone.States = []string{"CA"}
	zone.Cities = []string{"Los Angeles"}
	zone.PostalCodes = []string{"90*"}

	assert.True(t, zoneCovers(&zone, AddressInput{Country: "US", State: "CA", City: "Los Angeles", PostalCode: "90210"}))
	assert.False(t, zoneCovers(&zone, AddressInput{Country: "US", State: "CA", City: "San Diego", PostalCode: "90210"}))
	assert.False(t, zoneCovers(&zone, AddressInput{Country: "US", State: "CA", City: "Los Angeles", PostalCode: "80210"}))
}

func TestMatchesPostalCodeWildcard(t *testing.T) {
	assert.True(t, matchesPostalCode([]string{"9*"}, "90210"))
	assert.False(t, matchesPostalCode([]string{"8*"}, "90210"))
	assert.True(t, matchesPostalCode([]string{"*10"}, "90210"))
	assert.True(t, matchesPostalCode([]string{"10001"}, "10001"), "exact entries still match")
	assert.False(t, matchesPostalCode([]string{"10001"}, "10002"))
	assert.False(t, matchesPostalCode(nil, "10001"))
}

// --- Service-level zone resolution ---

type stubZoneRepo struct {
	repository.ShippingZoneRepository
	zones []model.ShippingZone
}

func (s stubZoneRepo) ListActive(ctx context.Context) ([]model.ShippingZone, error) {
	return s.zones, nil
}

func TestCalculateShippingNoZoneMatches(t *testing.T) {
	svc := NewShippingCalculationService(stubZoneRepo{zones: []model.ShippingZone{usZone("Domestic")}}, nil, nil, nil)

	req := CalculateShippingRequest{
		Address: AddressInput{Country: "JP", PostalCode: "100-0001"},
		Items: []ShippingItemInput{
			{ProductID: uuid.NewString(), Quantity: 1, Weight: dec("1"), Price: dec("10")},
		},
	}

	_, err := svc.Calculate(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoShippingZone)
}

func TestComputeShippingTotals(t *testing.T) {
	zone := usZone("Domestic")
	req := CalculateShippingRequest{
		Address: AddressInput{Country: "US"},
		Items: []ShippingItemInput{
			{ProductID: uuid.NewString(), Quantity: 2, Weight: dec("1.5"), Price: dec("20")},
			{ProductID: uuid.NewString(), Quantity: 1, Weight: dec("0.5"), Price: dec("10")},
		},
	}

	result := computeShipping(req, &zone, nil, nil)

	assert.True(t, result.TotalWeight.Equal(dec("3.5")))
	assert.True(t, result.TotalValue.Equal(dec("50")))
	assert.Equal(t, zone.ID, result.Zone.ID)

	// Explicit order total overrides the item sum
	req.OrderTotal = dec("75")
	result = computeShipping(req, &zone, nil, nil)
	assert.True(t, result.TotalValue.Equal(dec("75")))
}
