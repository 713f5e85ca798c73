package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveQuantityHours(t *testing.T) {
	got, err := DeriveQuantity(ContractHours, 2*time.Hour+15*time.Minute, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("2.25")), "got %s", got)
}

func TestDeriveQuantityShiftRoundsUpToHalf(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{9*time.Hour + 12*time.Minute, "1.5"},
		{8 * time.Hour, "1"},
		{4 * time.Hour, "0.5"},
		{30 * time.Minute, "0.5"},
		{12*time.Hour + 1*time.Minute, "2"},
		{16 * time.Hour, "2"},
	}
	for _, tc := range cases {
		got, err := DeriveQuantity(ContractShift, tc.elapsed, nil)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"elapsed %s: want %s, got %s", tc.elapsed, tc.want, got)
	}
}

func TestDeriveQuantityFixed(t *testing.T) {
	got, err := DeriveQuantity(ContractFixed, 73*time.Hour, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))
}

func TestDeriveQuantityTonnes(t *testing.T) {
	_, err := DeriveQuantity(ContractTonnes, time.Hour, nil)
	assert.True(t, errors.Is(err, ErrMissingQuantity))

	zero := decimal.Zero
	_, err = DeriveQuantity(ContractTonnes, time.Hour, &zero)
	assert.True(t, errors.Is(err, ErrMissingQuantity))

	supplied := decimal.RequireFromString("12.40")
	got, err := DeriveQuantity(ContractTonnes, time.Hour, &supplied)
	require.NoError(t, err)
	assert.True(t, got.Equal(supplied))
}

func TestNormalizeVehicleNumber(t *testing.T) {
	assert.Equal(t, "KA-01-AB-1234", NormalizeVehicleNumber("  ka-01-ab-1234 "))
}
