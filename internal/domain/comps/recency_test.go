package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordAged(days int, price float64) SaleRecord {
	return SaleRecord{
		SaleID:   "rec",
		Price:    price,
		SaleDate: testNow.AddDate(0, 0, -days),
	}
}

func TestFilterByRecencyPrefersFreshWindow(t *testing.T) {
	records := []SaleRecord{
		recordAged(10, 100000),
		recordAged(40, 101000),
		recordAged(85, 102000),
		recordAged(120, 90000),
		recordAged(400, 80000),
	}

	got, tier := FilterByRecency(records, testNow, 3)
	assert.Equal(t, TierWithin90, tier)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.True(t, r.SaleDate.After(testNow.AddDate(0, 0, -90)))
	}
}

func TestFilterByRecencyWidensTo180Days(t *testing.T) {
	records := []SaleRecord{
		recordAged(10, 100000),
		recordAged(40, 101000),
		recordAged(120, 90000),
		recordAged(400, 80000),
	}

	got, tier := FilterByRecency(records, testNow, 3)
	assert.Equal(t, TierWithin180, tier)
	assert.Len(t, got, 3)
}

func TestFilterByRecencyFallsBackToAll(t *testing.T) {
	records := []SaleRecord{
		recordAged(10, 100000),
		recordAged(400, 80000),
		recordAged(500, 70000),
	}

	got, tier := FilterByRecency(records, testNow, 3)
	assert.Equal(t, TierAllTime, tier)
	// The all-time fallback never shrinks the input.
	assert.Equal(t, records, got)
}

func TestFilterByRecencyUnknownDateBucketsConservatively(t *testing.T) {
	records := []SaleRecord{
		recordAged(10, 100000),
		recordAged(20, 101000),
		{SaleID: "undated", Price: 95000},
	}

	got, tier := FilterByRecency(records, testNow, 3)
	assert.Equal(t, TierWithin180, tier)
	require.Len(t, got, 3)

	// The undated record must not be mistaken for fresh data.
	got90, tier90 := FilterByRecency(append(records, recordAged(30, 99000)), testNow, 3)
	assert.Equal(t, TierWithin90, tier90)
	for _, r := range got90 {
		assert.NotEqual(t, "undated", r.SaleID)
	}
}

func TestFilterByRecencyEmptyInput(t *testing.T) {
	got, tier := FilterByRecency(nil, testNow, 3)
	assert.Equal(t, TierAllTime, tier)
	assert.Empty(t, got)
}

func TestFilterByRecencyDoesNotMutateInput(t *testing.T) {
	records := []SaleRecord{
		recordAged(10, 100000),
		recordAged(400, 80000),
	}
	snapshot := make([]SaleRecord, len(records))
	copy(snapshot, records)

	got, _ := FilterByRecency(records, testNow, 3)
	got = append(got, recordAged(1, 1))
	_ = got

	assert.Equal(t, snapshot, records)
}
