package appraiser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// Appraiser calls a hosted chat-completions endpoint to narrate valuations.
type Appraiser struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	logger      logging.Logger
}

// NewAppraiser builds an Appraiser from configuration.
func NewAppraiser(cfg config.AppraiserConfig, log logging.Logger) *Appraiser {
	if log == nil {
		log = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Appraiser{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log.Named("appraiser"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Narrate returns a prose summary of result.  Any failure carries an AI
// error code; callers fall back to the engine's deterministic explanation.
func (a *Appraiser) Narrate(ctx context.Context, query valuation.EquipmentQuery, result *valuation.ValuationResult) (string, error) {
	userPrompt, err := BuildUserPrompt(query, result)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to build appraisal prompt")
	}

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeModelUnavailable, "failed to build model request")
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeModelUnavailable, "model endpoint is unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to read model response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeInferenceFailed,
			fmt.Sprintf("model returned status %d", resp.StatusCode)).WithDetail(truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInferenceFailed, "malformed model response")
	}
	if parsed.Error != nil {
		return "", errors.New(errors.ErrCodeInferenceFailed, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.New(errors.ErrCodeInferenceFailed, "model returned no content")
	}

	narration := strings.TrimSpace(parsed.Choices[0].Message.Content)
	a.logger.Debug("valuation narrated", logging.Int("chars", len(narration)))
	return narration, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
