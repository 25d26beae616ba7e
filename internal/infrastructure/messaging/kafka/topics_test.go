package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

func TestNewEventEnvelope(t *testing.T) {
	payload := ValuationCompletedPayload{
		RequestID:       "req-1",
		Make:            "John Deere",
		Model:           "8370R",
		FairMarketValue: 162800,
		Confidence:      "low",
		SampleSize:      3,
		CompletedAt:     time.Now().UTC(),
	}

	envelope, err := NewEventEnvelope(TopicValuationCompleted, "apiserver", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, TopicValuationCompleted, envelope.EventType)
	assert.Equal(t, "apiserver", envelope.Source)
	assert.Equal(t, "v1", envelope.SchemaVersion)
	assert.False(t, envelope.Timestamp.IsZero())

	var decoded ValuationCompletedPayload
	require.NoError(t, envelope.DecodePayload(&decoded))
	assert.Equal(t, payload.RequestID, decoded.RequestID)
	assert.Equal(t, payload.FairMarketValue, decoded.FairMarketValue)
}

func TestNewEventEnvelopeUniqueIDs(t *testing.T) {
	a, err := NewEventEnvelope(TopicValuationRequested, "apiserver", ValuationRequestedPayload{})
	require.NoError(t, err)
	b, err := NewEventEnvelope(TopicValuationRequested, "apiserver", ValuationRequestedPayload{})
	require.NoError(t, err)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestDecodePayloadEmpty(t *testing.T) {
	envelope := &EventEnvelope{}
	var decoded ValuationRequestedPayload
	err := envelope.DecodePayload(&decoded)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestDecodePayloadMalformed(t *testing.T) {
	envelope := &EventEnvelope{Payload: []byte(`{"request_id": 42broken`)}
	var decoded ValuationRequestedPayload
	err := envelope.DecodePayload(&decoded)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}
