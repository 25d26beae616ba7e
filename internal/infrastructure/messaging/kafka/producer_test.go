package kafka

import (
	"context"
	"sync"
	"testing"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []segkafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, logging.NewNopLogger())

	envelope, err := NewEventEnvelope(TopicValuationCompleted, "test", ValuationCompletedPayload{RequestID: "req-1"})
	require.NoError(t, err)
	require.NoError(t, producer.Publish(context.Background(), TopicValuationCompleted, envelope))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, TopicValuationCompleted, msg.Topic)
	assert.Equal(t, envelope.EventID, string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, TopicValuationCompleted, string(msg.Headers[0].Value))
	assert.Equal(t, int64(1), producer.Published())
}

func TestProducerPublishWriteFailure(t *testing.T) {
	writer := &fakeWriter{err: assert.AnError}
	producer := NewProducerWithWriter(writer, logging.NewNopLogger())

	envelope, err := NewEventEnvelope(TopicValuationFailed, "test", ValuationFailedPayload{})
	require.NoError(t, err)

	err = producer.Publish(context.Background(), TopicValuationFailed, envelope)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Equal(t, int64(1), producer.Failed())
}

func TestProducerPublishAfterClose(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, logging.NewNopLogger())
	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)

	envelope, err := NewEventEnvelope(TopicValuationCompleted, "test", ValuationCompletedPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, producer.Publish(context.Background(), TopicValuationCompleted, envelope), ErrProducerClosed)

	// Second close is a no-op.
	assert.NoError(t, producer.Close())
}
