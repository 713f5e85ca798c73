package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	e := Expense{
		CISFAmount:    decimal.RequireFromString("50.00"),
		KPTAmount:     decimal.RequireFromString("50.00"),
		CustomsAmount: decimal.RequireFromString("50.00"),
		RoadTaxDays:   1,
		OtherCharges:  decimal.Zero,
	}
	e.ComputeTotals(decimal.RequireFromString("50.00"))

	assert.True(t, e.RoadTaxAmount.Equal(decimal.RequireFromString("50.00")), "road tax %s", e.RoadTaxAmount)
	assert.True(t, e.TotalAmount.Equal(decimal.RequireFromString("200.00")), "total %s", e.TotalAmount)
}

func TestComputeTotalsMultipleRoadTaxDays(t *testing.T) {
	e := Expense{
		CISFAmount:    decimal.RequireFromString("10.00"),
		KPTAmount:     decimal.Zero,
		CustomsAmount: decimal.Zero,
		RoadTaxDays:   3,
		OtherCharges:  decimal.RequireFromString("7.50"),
	}
	e.ComputeTotals(decimal.RequireFromString("25.00"))

	assert.True(t, e.RoadTaxAmount.Equal(decimal.RequireFromString("75.00")))
	assert.True(t, e.TotalAmount.Equal(decimal.RequireFromString("92.50")))
}

func TestExpenseStatusTerminal(t *testing.T) {
	assert.False(t, ExpenseSubmitted.Terminal())
	assert.False(t, ExpenseApproved.Terminal())
	assert.True(t, ExpenseRejected.Terminal())
	assert.True(t, ExpenseFinalized.Terminal())
}
