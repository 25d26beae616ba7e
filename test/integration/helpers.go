// Shared infrastructure for integration tests: environment gating, fixture
// passages, and an in-process API server wired end to end (real router,
// handlers, application service, and valuation engine; only the external
// passage search is substituted).
package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/domain/comps"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/turtacn/AgValue-Intelligence/internal/interfaces/http"
	"github.com/turtacn/AgValue-Intelligence/internal/interfaces/http/handlers"
)

const (
	// EnvIntegrationEnabled gates tests that need external infrastructure
	// (Docker for testcontainers).  The in-process pipeline tests run
	// unconditionally.
	EnvIntegrationEnabled = "AGVALUE_INTEGRATION_TEST"

	// TestTimeout bounds a single integration test.
	TestTimeout = 120 * time.Second
)

// SkipIfNoIntegration skips the calling test when the integration flag is
// unset.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("skipping integration test: set %s=1 to enable", EnvIntegrationEnabled)
	}
}

// testContext returns a context bounded by TestTimeout and tied to the test
// lifetime.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// stubSearcher satisfies the application service's PassageSearcher with a
// fixed passage set, recording how often it is consulted.
type stubSearcher struct {
	passages []comps.Passage
	err      error
	calls    atomic.Int32
}

func (s *stubSearcher) Search(ctx context.Context, query, brandHint string) ([]comps.Passage, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]comps.Passage, len(s.passages))
	copy(out, s.passages)
	for i := range out {
		out[i].BrandHint = brandHint
	}
	return out, nil
}

// auctionPassages builds a realistic set of auction-listing snippets for a
// John Deere 8370R, dated inside the 90-day recency window ending at now.
// One listing carries an implausibly low price so outlier removal has
// something to do.
func auctionPassages(now time.Time) []comps.Passage {
	format := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format("01/02/2006")
	}

	texts := []string{
		fmt.Sprintf("2019 John Deere 8370R row crop tractor sold for $185,000 at SMITH AUCTION on %s. 2,100 hours, duals, excellent condition.", format(12)),
		fmt.Sprintf("John Deere 8370R, 2,850 hrs, sold %s in Sioux Falls, SD for $178,500.", format(25)),
		fmt.Sprintf("Lot 44: JD 8370R tractor. Hammer price $182,000. Sale date %s. PETERSON AUCTIONEERS.", format(8)),
		fmt.Sprintf("John Deere 8370R MFWD tractor brought $176,000 dollars at the %s consignment sale in Ames, IA.", format(40)),
		fmt.Sprintf("8370R John Deere, IVT, front duals, sold for $189,500 on %s.", format(55)),
		fmt.Sprintf("2018 John Deere 8370R, 3,400 hours, $171,000 USD, sold %s at HANSON BROS AUCTION.", format(33)),
		fmt.Sprintf("John Deere 8370R sold at retirement auction %s for $183,250 in Mankato, MN.", format(61)),
		fmt.Sprintf("Deere 8370R tractor, premium cab, $180,500 final bid, %s.", format(18)),
		fmt.Sprintf("Salvage John Deere 8370R, fire damage, parts only, sold for $15,000 on %s.", format(20)),
	}

	passages := make([]comps.Passage, len(texts))
	for i, text := range texts {
		passages[i] = comps.Passage{Text: text}
	}
	return passages
}

// newPipelineServer wires the real HTTP stack over searcher and returns a
// running test server.
func newPipelineServer(t *testing.T, searcher appvaluation.PassageSearcher) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNopLogger()
	metrics := prometheus.NewMetrics("agvalue_integration")
	engine := domainValuation.NewDefaultEngine()
	service := appvaluation.NewService(searcher, engine, logger, appvaluation.Options{Metrics: metrics})

	router := httpiface.NewRouter(httpiface.RouterConfig{
		ValuationHandler: handlers.NewValuationHandler(service, logger),
		HealthHandler:    handlers.NewHealthHandler("integration-test"),
		Logger:           logger,
		Metrics:          metrics,
		Mode:             gin.TestMode,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}
