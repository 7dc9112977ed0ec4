package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	apperr "algolab/pkg/errors"
)

// StatusEventPublisher announces terminal submission statuses to
// downstream consumers (scoring, leaderboards). Publishing is best
// effort from the engine's point of view; a failed publish never changes
// a verdict.
type StatusEventPublisher interface {
	PublishFinalStatus(ctx context.Context, snap StatusSnapshot) error
	Close() error
}

// StatusEvent is the wire format of a terminal-status announcement.
type StatusEvent struct {
	Type      string         `json:"type"`
	Status    StatusSnapshot `json:"status"`
	CreatedAt int64          `json:"createdAt"`
}

const statusEventFinal = "judge.status.final"

// KafkaConfig holds the producer settings for status events.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// KafkaStatusEventPublisher publishes status events to a Kafka topic,
// keyed by submission id so per-submission ordering is preserved.
type KafkaStatusEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaStatusEventPublisher(cfg KafkaConfig) (*KafkaStatusEventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaStatusEventPublisher{writer: writer}, nil
}

func (p *KafkaStatusEventPublisher) PublishFinalStatus(ctx context.Context, snap StatusSnapshot) error {
	if p == nil || p.writer == nil {
		return apperr.New(apperr.ServiceUnavailable).WithMessage("status publisher is not configured")
	}
	if snap.SubmissionID == "" {
		return apperr.ValidationError("submission_id", "required")
	}
	event := StatusEvent{
		Type:      statusEventFinal,
		Status:    snap,
		CreatedAt: time.Now().Unix(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(snap.SubmissionID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return apperr.Wrapf(err, apperr.ServiceUnavailable, "publish status event failed")
	}
	return nil
}

func (p *KafkaStatusEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
