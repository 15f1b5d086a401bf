package service

import (
	"math"
	"time"

	"github.com/hrops-platform/hrops-api/internal/models"
)

// ComputeCurrentValue derives the straight-line depreciated value of an asset
// at the given time. Age counts whole 365-day years; the result is rounded to
// two decimal places and never negative. When the purchase date or rate is
// absent the raw cost is returned unchanged.
func ComputeCurrentValue(cost float64, purchaseDate *time.Time, ratePercentPerYear *float64, now time.Time) float64 {
	if purchaseDate == nil || ratePercentPerYear == nil {
		return cost
	}

	ageYears := math.Floor(now.Sub(*purchaseDate).Hours() / 24 / 365)
	if ageYears < 0 {
		ageYears = 0
	}

	depreciation := cost * (*ratePercentPerYear / 100) * ageYears
	value := math.Max(0, cost-depreciation)

	return math.Round(value*100) / 100
}

// RecomputeCurrentValue refreshes asset.CurrentValue from its purchase
// fields. It is invoked explicitly whenever cost, date or rate changes and by
// the periodic revaluation worker; the stored value is what reporting reads.
func RecomputeCurrentValue(asset *models.Asset, now time.Time) {
	if asset.PurchaseCost == nil {
		asset.CurrentValue = nil
		return
	}
	value := ComputeCurrentValue(*asset.PurchaseCost, asset.PurchaseDate, asset.DepreciationRate, now)
	asset.CurrentValue = &value
}
