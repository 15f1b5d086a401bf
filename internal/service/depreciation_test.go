package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
)

func TestComputeCurrentValueStraightLine(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 20.0

	twoYearsAgo := now.AddDate(-2, -1, 0)
	got := ComputeCurrentValue(100000, &twoYearsAgo, &rate, now)
	assert.Equal(t, 60000.00, got)

	oneYearAgo := now.AddDate(-1, -1, 0)
	got = ComputeCurrentValue(100000, &oneYearAgo, &rate, now)
	assert.Equal(t, 80000.00, got)
}

func TestComputeCurrentValueNeverNegative(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 20.0
	sixYearsAgo := now.AddDate(-6, -1, 0)

	got := ComputeCurrentValue(100000, &sixYearsAgo, &rate, now)
	assert.Equal(t, 0.00, got)
}

func TestComputeCurrentValuePartialYearsDoNotDepreciate(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 20.0
	elevenMonthsAgo := now.AddDate(0, -11, 0)

	got := ComputeCurrentValue(100000, &elevenMonthsAgo, &rate, now)
	assert.Equal(t, 100000.00, got)
}

func TestComputeCurrentValueMissingInputsReturnCost(t *testing.T) {
	now := time.Now().UTC()
	rate := 20.0
	purchase := now.AddDate(-3, 0, 0)

	assert.Equal(t, 55000.00, ComputeCurrentValue(55000, nil, &rate, now))
	assert.Equal(t, 55000.00, ComputeCurrentValue(55000, &purchase, nil, now))
}

func TestComputeCurrentValueFuturePurchaseDate(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 20.0
	future := now.AddDate(1, 0, 0)

	assert.Equal(t, 100000.00, ComputeCurrentValue(100000, &future, &rate, now))
}

func TestComputeCurrentValueRoundsToTwoDecimals(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 33.33
	oneYearAgo := now.AddDate(-1, -1, 0)

	// 999.99 - 999.99*0.3333 = 666.693333 -> 666.69
	got := ComputeCurrentValue(999.99, &oneYearAgo, &rate, now)
	assert.Equal(t, 666.69, got)
}

func TestRecomputeCurrentValue(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rate := 10.0
	cost := 40000.0
	purchase := now.AddDate(-2, -1, 0)

	asset := &models.Asset{PurchaseCost: &cost, PurchaseDate: &purchase, DepreciationRate: &rate}
	RecomputeCurrentValue(asset, now)
	require.NotNil(t, asset.CurrentValue)
	assert.Equal(t, 32000.00, *asset.CurrentValue)

	asset.PurchaseCost = nil
	RecomputeCurrentValue(asset, now)
	assert.Nil(t, asset.CurrentValue)
}
