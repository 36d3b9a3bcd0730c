package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateConditions(t *testing.T) {
	valid := []RuleConditionPayload{
		{Field: "order_subtotal", Operator: "GREATER_THAN", Value: "100"},
	}
	assert.NoError(t, validateConditions(valid))

	assert.Error(t, validateConditions(nil), "empty condition list")

	unknownField := []RuleConditionPayload{
		{Field: "moon_phase", Operator: "EQUALS", Value: "full"},
	}
	assert.ErrorContains(t, validateConditions(unknownField), "unknown field")

	unknownOp := []RuleConditionPayload{
		{Field: "customer_type", Operator: "LOOKS_LIKE", Value: "RETAIL"},
	}
	assert.ErrorContains(t, validateConditions(unknownOp), "unknown operator")
}

func TestValidateConditionsBetweenRequiresValue2(t *testing.T) {
	missing := []RuleConditionPayload{
		{Field: "item_count", Operator: "BETWEEN", Value: "5"},
	}
	assert.ErrorContains(t, validateConditions(missing), "requires value2")

	empty := []RuleConditionPayload{
		{Field: "item_count", Operator: "NOT_BETWEEN", Value: "5", Value2: strPtr("")},
	}
	assert.ErrorContains(t, validateConditions(empty), "requires value2")

	ok := []RuleConditionPayload{
		{Field: "item_count", Operator: "BETWEEN", Value: "5", Value2: strPtr("10")},
	}
	assert.NoError(t, validateConditions(ok))
}

func TestValidateActions(t *testing.T) {
	valid := []RuleActionPayload{
		{Action: "MULTIPLY_TAX", Value: dec("0.5")},
	}
	assert.NoError(t, validateActions(valid))

	assert.Error(t, validateActions(nil), "empty action list")

	unknown := []RuleActionPayload{
		{Action: "HALVE_TAX", Value: dec("1")},
	}
	assert.ErrorContains(t, validateActions(unknown), "unknown action")
}

func TestToConditionModelsAssignsPositions(t *testing.T) {
	payloads := []RuleConditionPayload{
		{Field: "customer_type", Operator: "EQUALS", Value: "RETAIL"},
		{Field: "order_subtotal", Operator: "GREATER_THAN", Value: "50"},
	}

	models := toConditionModels(uuid.New(), payloads)

	assert.Len(t, models, 2)
	assert.Equal(t, 0, models[0].Position)
	assert.Equal(t, 1, models[1].Position)
}
