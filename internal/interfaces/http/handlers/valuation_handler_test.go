package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

type fakeService struct {
	result        *appvaluation.Result
	err           error
	evaluateCalls int
	appraiseCalls int
	lastInput     *appvaluation.EvaluateInput
}

func (f *fakeService) Evaluate(_ context.Context, input *appvaluation.EvaluateInput) (*appvaluation.Result, error) {
	f.evaluateCalls++
	f.lastInput = input
	return f.result, f.err
}

func (f *fakeService) Appraise(_ context.Context, input *appvaluation.EvaluateInput) (*appvaluation.Result, error) {
	f.appraiseCalls++
	f.lastInput = input
	return f.result, f.err
}

func newValuationRouter(svc appvaluation.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewValuationHandler(svc, logging.NewNopLogger())
	r.POST("/api/v1/valuations", h.Create)
	return r
}

func postValuation(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateValuation(t *testing.T) {
	svc := &fakeService{result: &appvaluation.Result{
		RequestID: "req-1",
		Valuation: &domainValuation.ValuationResult{
			FairMarketValue: 162800,
			Confidence:      domainValuation.ConfidenceMedium,
			SampleSize:      12,
		},
	}}
	r := newValuationRouter(svc)

	w := postValuation(t, r, `{"make":"John Deere","model":"8370R","year":2020,"condition":"good"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result appvaluation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, float64(162800), result.Valuation.FairMarketValue)
	assert.Equal(t, domainValuation.ConfidenceMedium, result.Valuation.Confidence)

	assert.Equal(t, 1, svc.evaluateCalls)
	assert.Equal(t, 0, svc.appraiseCalls)
	assert.Equal(t, "John Deere", svc.lastInput.Make)
}

func TestCreateValuationNarrate(t *testing.T) {
	svc := &fakeService{result: &appvaluation.Result{
		Valuation: &domainValuation.ValuationResult{FairMarketValue: 100000},
		Narration: "A dependable machine at a fair price.",
	}}
	r := newValuationRouter(svc)

	w := postValuation(t, r, `{"make":"Kubota","model":"M7-152","narrate":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.evaluateCalls)
	assert.Equal(t, 1, svc.appraiseCalls)
	assert.Contains(t, w.Body.String(), "dependable machine")
}

func TestCreateValuationMissingFields(t *testing.T) {
	svc := &fakeService{}
	r := newValuationRouter(svc)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing model", `{"make":"John Deere"}`},
		{"not json", `year=2020`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postValuation(t, r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 0, svc.evaluateCalls)
		})
	}
}

func TestCreateValuationInsufficientData(t *testing.T) {
	svc := &fakeService{err: errors.InsufficientData("no comparable sales found")}
	r := newValuationRouter(svc)

	w := postValuation(t, r, `{"make":"Fendt","model":"942"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeInsufficientData), resp.Code)
	assert.Contains(t, resp.Message, "no comparable sales")
}

func TestCreateValuationInternalErrorIsMasked(t *testing.T) {
	svc := &fakeService{err: errors.Internal("redis pool exhausted on node 3")}
	r := newValuationRouter(svc)

	w := postValuation(t, r, `{"make":"Claas","model":"Axion 960"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis pool")
	assert.Contains(t, w.Body.String(), "internal server error")
}
