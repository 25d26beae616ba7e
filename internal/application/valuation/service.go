// Package valuation provides the application-level valuation service.  It
// orchestrates passage search, the domain pipeline, caching, events, and the
// optional prose narrator for the HTTP and worker entry points.
package valuation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/AgValue-Intelligence/internal/domain/comps"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// eventSource identifies this service on the event bus.
const eventSource = "agvalue-intelligence"

// PassageSearcher retrieves auction-listing passages for a free-text query.
type PassageSearcher interface {
	Search(ctx context.Context, query, brandHint string) ([]comps.Passage, error)
}

// Narrator restates a finished valuation as prose.
type Narrator interface {
	Narrate(ctx context.Context, query domainValuation.EquipmentQuery, result *domainValuation.ValuationResult) (string, error)
}

// EventPublisher publishes envelopes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope *kafka.EventEnvelope) error
}

// Service defines the valuation application operations.
type Service interface {
	Evaluate(ctx context.Context, input *EvaluateInput) (*Result, error)
	Appraise(ctx context.Context, input *EvaluateInput) (*Result, error)
}

// EvaluateInput describes the equipment to value.
type EvaluateInput struct {
	RequestID   string   `json:"request_id,omitempty"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Condition   string   `json:"condition,omitempty"`
	HoursUsed   *float64 `json:"hours_used,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Result is the application-level valuation DTO.
type Result struct {
	RequestID string                           `json:"request_id"`
	Query     domainValuation.EquipmentQuery   `json:"query"`
	Valuation *domainValuation.ValuationResult `json:"valuation"`
	Narration string                           `json:"narration,omitempty"`
	CachedAt  time.Time                        `json:"cached_at"`
}

type serviceImpl struct {
	searcher  PassageSearcher
	engine    *domainValuation.Engine
	cache     redis.Cache
	cacheTTL  time.Duration
	publisher EventPublisher
	narrator  Narrator
	metrics   *prometheus.Metrics
	logger    logging.Logger
	now       func() time.Time
}

// Options carries the optional collaborators.  Every field may be nil: a nil
// cache disables caching, a nil publisher disables events, a nil narrator
// makes Appraise fall back to the engine's template explanation.
type Options struct {
	Cache     redis.Cache
	CacheTTL  time.Duration
	Publisher EventPublisher
	Narrator  Narrator
	Metrics   *prometheus.Metrics
}

// NewService creates the valuation application service.
func NewService(searcher PassageSearcher, engine *domainValuation.Engine, logger logging.Logger, opts Options) Service {
	if engine == nil {
		engine = domainValuation.NewDefaultEngine()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.NewMetrics("agvalue_test")
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &serviceImpl{
		searcher:  searcher,
		engine:    engine,
		cache:     opts.Cache,
		cacheTTL:  cacheTTL,
		publisher: opts.Publisher,
		narrator:  opts.Narrator,
		metrics:   metrics,
		logger:    logger.Named("valuation.service"),
		now:       time.Now,
	}
}

// Evaluate values the equipment described by input.  Results are cached per
// normalised query; a cache hit skips search and the pipeline entirely.
func (s *serviceImpl) Evaluate(ctx context.Context, input *EvaluateInput) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.RequestID == "" {
		input.RequestID = uuid.New().String()
	}

	start := s.now()
	query := input.toQuery()

	if s.cache == nil {
		result, err := s.evaluateUncached(ctx, input, query)
		s.observe(start, err)
		return result, err
	}

	var cached Result
	cacheErr := s.cache.Get(ctx, cacheKey(query), &cached)
	if cacheErr == nil {
		s.metrics.CacheHitsTotal.Inc()
		s.metrics.ValuationsTotal.WithLabelValues("ok").Inc()
		cached.RequestID = input.RequestID
		return &cached, nil
	}
	if errors.IsCode(cacheErr, errors.ErrCodeNotFound) {
		s.metrics.CacheMissesTotal.Inc()
	}

	result, err := s.evaluateUncached(ctx, input, query)
	s.observe(start, err)
	if err != nil {
		return nil, err
	}
	if setErr := s.cache.Set(ctx, cacheKey(query), result, s.cacheTTL); setErr != nil {
		s.logger.Warn("failed to cache valuation", logging.Err(setErr))
	}
	return result, nil
}

// Appraise runs Evaluate and then asks the narrator for a prose summary.  A
// narrator failure is logged and counted but never fails the request; the
// result keeps the engine's deterministic explanation.
func (s *serviceImpl) Appraise(ctx context.Context, input *EvaluateInput) (*Result, error) {
	result, err := s.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.narrator == nil || result.Narration != "" {
		return result, nil
	}

	llmStart := s.now()
	narration, err := s.narrator.Narrate(ctx, result.Query, result.Valuation)
	s.metrics.LLMDuration.Observe(s.now().Sub(llmStart).Seconds())
	if err != nil {
		s.metrics.LLMErrors.Inc()
		s.logger.Warn("narration failed, keeping template explanation",
			logging.String("request_id", result.RequestID), logging.Err(err))
		return result, nil
	}

	result.Narration = narration
	return result, nil
}

func (s *serviceImpl) evaluateUncached(ctx context.Context, input *EvaluateInput, query domainValuation.EquipmentQuery) (*Result, error) {
	passages, err := s.search(ctx, input)
	if err != nil {
		s.publishFailed(ctx, input, err)
		return nil, err
	}

	now := s.now()
	valuation, stats, err := s.engine.Evaluate(passages, query, now)
	s.recordPipelineStats(stats)
	if err != nil {
		s.publishFailed(ctx, input, err)
		return nil, err
	}

	result := &Result{
		RequestID: input.RequestID,
		Query:     query,
		Valuation: valuation,
		CachedAt:  now.UTC(),
	}
	s.publishCompleted(ctx, input, valuation)
	return result, nil
}

func (s *serviceImpl) search(ctx context.Context, input *EvaluateInput) ([]comps.Passage, error) {
	searchStart := s.now()
	passages, err := s.searcher.Search(ctx, searchQuery(input), input.Make)
	s.metrics.SearchDuration.Observe(s.now().Sub(searchStart).Seconds())
	if err != nil {
		s.metrics.SearchErrors.Inc()
		return nil, err
	}
	return passages, nil
}

func (s *serviceImpl) observe(start time.Time, err error) {
	s.metrics.ValuationDuration.Observe(s.now().Sub(start).Seconds())
	switch {
	case err == nil:
		s.metrics.ValuationsTotal.WithLabelValues("ok").Inc()
	case errors.IsInsufficientData(err):
		s.metrics.ValuationsTotal.WithLabelValues("insufficient_data").Inc()
	default:
		s.metrics.ValuationsTotal.WithLabelValues("error").Inc()
	}
}

func (s *serviceImpl) recordPipelineStats(stats domainValuation.PipelineStats) {
	s.metrics.PassagesProcessed.WithLabelValues("record").Add(float64(stats.RecordsBuilt))
	if dropped := stats.PassagesIn - stats.RecordsBuilt; dropped > 0 {
		s.metrics.PassagesProcessed.WithLabelValues("dropped").Add(float64(dropped))
	}
	if stats.RecencyTier != "" {
		s.metrics.RecencyTierSelected.WithLabelValues(string(stats.RecencyTier)).Inc()
	}
	s.metrics.OutliersRemoved.Add(float64(stats.OutliersRemoved))
	s.metrics.SampleSize.Observe(float64(stats.SampleSize))
}

func (s *serviceImpl) publishCompleted(ctx context.Context, input *EvaluateInput, v *domainValuation.ValuationResult) {
	if s.publisher == nil {
		return
	}
	envelope, err := kafka.NewEventEnvelope(kafka.TopicValuationCompleted, eventSource, kafka.ValuationCompletedPayload{
		RequestID:       input.RequestID,
		Make:            input.Make,
		Model:           input.Model,
		FairMarketValue: v.FairMarketValue,
		Confidence:      string(v.Confidence),
		SampleSize:      v.SampleSize,
		CompletedAt:     s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to build completion event", logging.Err(err))
		return
	}
	if err := s.publisher.Publish(ctx, kafka.TopicValuationCompleted, envelope); err != nil {
		s.logger.Warn("failed to publish completion event", logging.Err(err))
		return
	}
	s.metrics.EventsPublished.WithLabelValues(kafka.TopicValuationCompleted).Inc()
}

func (s *serviceImpl) publishFailed(ctx context.Context, input *EvaluateInput, cause error) {
	if s.publisher == nil {
		return
	}
	envelope, err := kafka.NewEventEnvelope(kafka.TopicValuationFailed, eventSource, kafka.ValuationFailedPayload{
		RequestID: input.RequestID,
		Make:      input.Make,
		Model:     input.Model,
		ErrorCode: string(errors.GetCode(cause)),
		Message:   cause.Error(),
		FailedAt:  s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to build failure event", logging.Err(err))
		return
	}
	if err := s.publisher.Publish(ctx, kafka.TopicValuationFailed, envelope); err != nil {
		s.logger.Warn("failed to publish failure event", logging.Err(err))
		return
	}
	s.metrics.EventsPublished.WithLabelValues(kafka.TopicValuationFailed).Inc()
}

func (in *EvaluateInput) toQuery() domainValuation.EquipmentQuery {
	hours := in.HoursUsed
	if hours == nil {
		hours = hoursFromDescription(in.Description)
	}
	return domainValuation.EquipmentQuery{
		Make:        strings.TrimSpace(in.Make),
		Model:       strings.TrimSpace(in.Model),
		Year:        in.Year,
		Condition:   string(domainValuation.ParseCondition(in.Condition)),
		HoursUsed:   hours,
		Description: strings.TrimSpace(in.Description),
	}
}

var reDescriptionHours = regexp.MustCompile(`(?i)([\d,]*\d)\s*(?:hours|hrs)\b`)

// hoursFromDescription recovers an hour-meter figure mentioned in the
// free-form description, for requests that omit hours_used.
func hoursFromDescription(desc string) *float64 {
	m := reDescriptionHours.FindStringSubmatch(desc)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func validateInput(input *EvaluateInput) error {
	if input == nil {
		return errors.InvalidParam("valuation input is required")
	}
	if strings.TrimSpace(input.Make) == "" {
		return errors.InvalidParam("make is required")
	}
	if strings.TrimSpace(input.Model) == "" {
		return errors.InvalidParam("model is required")
	}
	if input.Year < 0 || input.Year > time.Now().Year()+1 {
		return errors.InvalidParam(fmt.Sprintf("year %d is out of range", input.Year))
	}
	if input.HoursUsed != nil && *input.HoursUsed < 0 {
		return errors.InvalidParam("hours_used must not be negative")
	}
	return nil
}

// searchQuery assembles the free-text search string for the subject.
func searchQuery(input *EvaluateInput) string {
	parts := []string{input.Make, input.Model}
	if input.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", input.Year))
	}
	parts = append(parts, "auction sale price")
	return strings.Join(parts, " ")
}

// cacheKey normalises the query into a stable cache key.  Description is
// excluded: it feeds the search context, not the identity of the subject.
func cacheKey(q domainValuation.EquipmentQuery) string {
	hours := "-"
	if q.HoursUsed != nil {
		hours = fmt.Sprintf("%.0f", *q.HoursUsed)
	}
	return strings.ToLower(fmt.Sprintf("valuation:%s|%s|%d|%s|%s",
		strings.ReplaceAll(q.Make, " ", "_"),
		strings.ReplaceAll(q.Model, " ", "_"),
		q.Year, q.Condition, hours))
}
