package appraiser

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

func sampleValuation() (valuation.EquipmentQuery, *valuation.ValuationResult) {
	query := valuation.EquipmentQuery{
		Make:      "John Deere",
		Model:     "8370R",
		Year:      2020,
		Condition: string(valuation.ConditionGood),
	}
	result := &valuation.ValuationResult{
		FairMarketValue: 162800,
		Confidence:      valuation.ConfidenceLow,
		SampleSize:      4,
	}
	return query, result
}

func newTestAppraiser(t *testing.T, handler http.HandlerFunc) *Appraiser {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAppraiser(config.AppraiserConfig{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "gpt-4o",
		Temperature: 0.2,
		MaxTokens:   300,
		Timeout:     5 * time.Second,
	}, logging.NewNopLogger())
}

func completion(content string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(payload)
}

func TestNarrateReturnsModelContent(t *testing.T) {
	var capturedPath, capturedAuth string
	var capturedReq chatRequest

	app := newTestAppraiser(t, func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &capturedReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("  A solid mid-market tractor valuation.  ")))
	})

	query, result := sampleValuation()
	narration, err := app.Narrate(context.Background(), query, result)
	require.NoError(t, err)
	assert.Equal(t, "A solid mid-market tractor valuation.", narration)

	assert.Equal(t, "/chat/completions", capturedPath)
	assert.Equal(t, "Bearer test-key", capturedAuth)
	assert.Equal(t, "gpt-4o", capturedReq.Model)
	assert.Equal(t, 300, capturedReq.MaxTokens)
	require.Len(t, capturedReq.Messages, 2)
	assert.Equal(t, "system", capturedReq.Messages[0].Role)
	assert.Equal(t, systemPrompt, capturedReq.Messages[0].Content)
	assert.Equal(t, "user", capturedReq.Messages[1].Role)
	assert.Contains(t, capturedReq.Messages[1].Content, `"8370R"`)
	assert.Contains(t, capturedReq.Messages[1].Content, "162800")
}

func TestNarrateUnreachableEndpoint(t *testing.T) {
	app := NewAppraiser(config.AppraiserConfig{
		BaseURL: "http://127.0.0.1:1",
		Model:   "gpt-4o",
		Timeout: time.Second,
	}, logging.NewNopLogger())

	query, result := sampleValuation()
	_, err := app.Narrate(context.Background(), query, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelUnavailable))
}

func TestNarrateNonOKStatus(t *testing.T) {
	app := newTestAppraiser(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	query, result := sampleValuation()
	_, err := app.Narrate(context.Background(), query, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInferenceFailed))
}

func TestNarrateErrorBody(t *testing.T) {
	app := newTestAppraiser(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	})

	query, result := sampleValuation()
	_, err := app.Narrate(context.Background(), query, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInferenceFailed))
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestNarrateEmptyContent(t *testing.T) {
	app := newTestAppraiser(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("   ")))
	})

	query, result := sampleValuation()
	_, err := app.Narrate(context.Background(), query, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInferenceFailed))
}

func TestNarrateMalformedResponse(t *testing.T) {
	app := newTestAppraiser(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	query, result := sampleValuation()
	_, err := app.Narrate(context.Background(), query, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInferenceFailed))
}

func TestBuildUserPromptCarriesSubjectAndValuation(t *testing.T) {
	query, result := sampleValuation()
	prompt, err := BuildUserPrompt(query, result)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Summarise this completed valuation:")
	assert.Contains(t, prompt, `"John Deere"`)
	assert.Contains(t, prompt, `"low"`)
}
