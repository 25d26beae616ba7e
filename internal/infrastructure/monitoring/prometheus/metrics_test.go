package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersWithoutPanic(t *testing.T) {
	m := NewMetrics("agvalue_test")
	require.NotNil(t, m)

	m.ValuationsTotal.WithLabelValues("ok").Inc()
	m.ValuationsTotal.WithLabelValues("insufficient_data").Inc()
	m.PassagesProcessed.WithLabelValues("record").Add(3)
	m.RecencyTierSelected.WithLabelValues("90d").Inc()
	m.OutliersRemoved.Add(2)
	m.SampleSize.Observe(12)
	m.SearchDuration.Observe(0.2)
	m.CacheHitsTotal.Inc()
	m.EventsPublished.WithLabelValues("valuation.completed").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValuationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PassagesProcessed.WithLabelValues("record")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutliersRemoved))
}

func TestIsolatedRegistries(t *testing.T) {
	// Two instances must not collide: each owns its registry.
	a := NewMetrics("agvalue_a")
	b := NewMetrics("agvalue_b")
	a.CacheHitsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHitsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHitsTotal))
}

func TestMetricsHandlerServes(t *testing.T) {
	m := NewMetrics("agvalue_test2")
	m.ValuationsTotal.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "agvalue_test2_valuations_total")
}
