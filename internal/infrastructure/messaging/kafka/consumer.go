package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer is already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeInternal, "consumer is closed")
)

// Handler processes one decoded event envelope.  Returning an error sends
// the message through the retry path and, once retries are exhausted, to the
// dead-letter topic.
type Handler func(ctx context.Context, envelope *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader so tests can substitute a fake.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the valuation event stream and dispatches envelopes to
// handlers registered per event type.  Unhandled event types are committed
// and skipped.
type Consumer struct {
	reader     ReaderInterface
	deadLetter *Producer
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	maxRetries   int
	retryBackoff time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed atomic.Int64
	failed   atomic.Int64
}

// NewConsumer builds a Consumer subscribed to topics in the configured
// consumer group.  deadLetter may be nil, in which case poisoned messages
// are dropped after logging.
func NewConsumer(cfg config.KafkaConfig, topics []string, deadLetter *Producer, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	})

	return &Consumer{
		reader:       reader,
		deadLetter:   deadLetter,
		logger:       log.Named("kafka.consumer"),
		handlers:     make(map[string]Handler),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
}

// NewConsumerWithReader builds a Consumer over a caller-supplied reader.
// Used by tests.
func NewConsumerWithReader(r ReaderInterface, deadLetter *Producer, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{
		reader:       r,
		deadLetter:   deadLetter,
		logger:       log.Named("kafka.consumer"),
		handlers:     make(map[string]Handler),
		maxRetries:   3,
		retryBackoff: 10 * time.Millisecond,
	}
}

// RegisterHandler binds a handler to an event type.  Must be called before
// Run.
func (c *Consumer) RegisterHandler(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Run starts the fetch/dispatch/commit loop and blocks until ctx is
// cancelled or the reader fails permanently.
func (c *Consumer) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	c.logger.Info("consumer loop started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer loop stopped")
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch message")
		}

		c.consumed.Add(1)
		c.dispatch(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit offset", logging.Err(err))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message) {
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		c.failed.Add(1)
		c.logger.Error("dropping undecodable message",
			logging.String("topic", msg.Topic), logging.Err(err))
		c.sendToDeadLetter(ctx, msg)
		return
	}

	c.mu.RLock()
	handler, ok := c.handlers[envelope.EventType]
	c.mu.RUnlock()
	if !ok {
		c.logger.Debug("no handler for event type, skipping",
			logging.String("event_type", envelope.EventType))
		return
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return
			}
		}
		if lastErr = handler(ctx, &envelope); lastErr == nil {
			return
		}
		c.logger.Warn("handler failed",
			logging.String("event_type", envelope.EventType),
			logging.Int("attempt", attempt+1),
			logging.Err(lastErr),
		)
	}

	c.failed.Add(1)
	c.logger.Error("handler exhausted retries, dead-lettering",
		logging.String("event_id", envelope.EventID),
		logging.String("event_type", envelope.EventType),
		logging.Err(lastErr),
	)
	c.sendToDeadLetter(ctx, msg)
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message) {
	if c.deadLetter == nil {
		return
	}
	dead := kafka.Message{Topic: TopicDeadLetter, Key: msg.Key, Value: msg.Value}
	if err := c.deadLetter.writer.WriteMessages(ctx, dead); err != nil {
		c.logger.Error("failed to dead-letter message", logging.Err(err))
	}
}

// Consumed reports the number of fetched messages.
func (c *Consumer) Consumed() int64 { return c.consumed.Load() }

// Failed reports the number of messages that could not be processed.
func (c *Consumer) Failed() int64 { return c.failed.Load() }

// Close stops the loop and releases the reader.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}
