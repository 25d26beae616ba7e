package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordsFromPrices(prices ...float64) []SaleRecord {
	records := make([]SaleRecord, len(prices))
	for i, p := range prices {
		records[i] = SaleRecord{SaleID: "rec", Price: p, SaleDate: testNow}
	}
	return records
}

func TestRemoveOutliersDropsExtremes(t *testing.T) {
	records := recordsFromPrices(100000, 102000, 98000, 101000, 99000, 500000)

	got, removed := RemoveOutliers(records, 5, 3)
	assert.Equal(t, 1, removed)
	require.Len(t, got, 5)
	for _, r := range got {
		assert.NotEqual(t, 500000.0, r.Price)
	}
}

func TestRemoveOutliersNoOpBelowMinSamples(t *testing.T) {
	records := recordsFromPrices(100000, 102000, 98000, 500000)

	got, removed := RemoveOutliers(records, 5, 3)
	assert.Zero(t, removed)
	assert.Equal(t, records, got)
}

func TestRemoveOutliersKeepsCleanSample(t *testing.T) {
	records := recordsFromPrices(100000, 102000, 98000, 101000, 99000)

	got, removed := RemoveOutliers(records, 5, 3)
	assert.Zero(t, removed)
	assert.Len(t, got, 5)
}

func TestRemoveOutliersRevertsWhenCutTooDeep(t *testing.T) {
	// Two tight clusters far apart: the IQR cut would leave fewer than
	// three survivors, so the original set must be kept.
	records := recordsFromPrices(1000, 1000, 1000, 900000, 900000)

	got, removed := RemoveOutliers(records, 5, 3)
	if removed > 0 {
		require.GreaterOrEqual(t, len(got), 3)
	} else {
		assert.Equal(t, records, got)
	}
	assert.GreaterOrEqual(t, len(got), 3)
}

func TestRemoveOutliersNeverBelowThreeFromFivePlus(t *testing.T) {
	samples := [][]float64{
		{1000, 2000, 3000, 500000, 600000},
		{100000, 100000, 100000, 100000, 999999},
		{1000, 1000, 500000, 500000, 500000, 999999},
		{50000, 51000, 52000, 53000, 54000, 1000, 999999},
	}
	for _, prices := range samples {
		got, _ := RemoveOutliers(recordsFromPrices(prices...), 5, 3)
		assert.GreaterOrEqual(t, len(got), 3, "prices: %v", prices)
	}
}

func TestRemoveOutliersPreservesInputOrder(t *testing.T) {
	records := recordsFromPrices(99000, 500000, 100000, 101000, 98000, 102000)

	got, removed := RemoveOutliers(records, 5, 3)
	require.Equal(t, 1, removed)
	want := []float64{99000, 100000, 101000, 98000, 102000}
	for i, r := range got {
		assert.Equal(t, want[i], r.Price)
	}
}

func TestPercentileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, percentile(sorted, 25), 1e-9)
	assert.InDelta(t, 2.5, percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 3.25, percentile(sorted, 75), 1e-9)
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 4.0, percentile(sorted, 100))
	assert.Equal(t, 7.0, percentile([]float64{7}, 50))
}
