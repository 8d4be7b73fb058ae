package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ekyc.backend/pkg/utils"
)

func TestEventEnvelopeShape(t *testing.T) {
	userID := utils.GenerateUUIDv7()
	env := eventEnvelope{
		Event:     EventKYCStarted,
		UserID:    userID.String(),
		Payload:   map[string]string{"kycId": "abc"},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "kyc.started", decoded["event"])
	assert.Equal(t, userID.String(), decoded["userId"])
	assert.Contains(t, decoded, "payload")
	assert.Contains(t, decoded, "timestamp")
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	p.Publish(context.Background(), EventApplicationCreated, utils.GenerateUUIDv7(), nil)
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherSurvivesBrokerFailure(t *testing.T) {
	// No broker is listening; Publish must swallow the error.
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "ekyc.events")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	p.Publish(ctx, EventPhoneVerified, utils.GenerateUUIDv7(), map[string]bool{"verified": true})
	assert.NoError(t, p.Close())
}
