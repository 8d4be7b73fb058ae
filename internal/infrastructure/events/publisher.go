// Package events publishes workflow domain events to Kafka so other
// services (notifications, analytics, scoring) can react to KYC and
// credit application progress.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ekyc.backend/pkg/logger"
)

// Event names emitted by the workflows
const (
	EventKYCStarted           = "kyc.started"
	EventKYCStepCompleted     = "kyc.step.completed"
	EventIdentityVerified     = "kyc.identity.verified"
	EventPhoneCodeSent        = "kyc.phone.code_sent"
	EventPhoneVerified        = "kyc.phone.verified"
	EventScoreCalculated      = "kyc.score.calculated"
	EventApplicationCreated   = "application.created"
	EventProgressUpdated      = "application.progress.updated"
	EventApplicationSubmitted = "application.submitted"
)

// Publisher emits domain events. Publishing is best effort: failures
// are logged, never propagated into the request path.
type Publisher interface {
	Publish(ctx context.Context, event string, userID uuid.UUID, payload interface{})
	Close() error
}

// eventEnvelope is the wire format of every published event
type eventEnvelope struct {
	Event     string      `json:"event"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// KafkaPublisher writes events to a single topic, keyed by user so
// one user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic: topic,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event string, userID uuid.UUID, payload interface{}) {
	value, err := json.Marshal(eventEnvelope{
		Event:     event,
		UserID:    userID.String(),
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.WithContext(ctx).Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(userID.String()),
		Value: value,
	})
	if err != nil {
		logger.WithContext(ctx).Error("publish event",
			zap.String("event", event),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	logger.WithContext(ctx).Debug("event published",
		zap.String("event", event),
		zap.String("user_id", userID.String()),
	)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used in tests and local setups
// without a broker.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(ctx context.Context, event string, userID uuid.UUID, payload interface{}) {
}

func (NoopPublisher) Close() error { return nil }
