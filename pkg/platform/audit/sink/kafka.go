// Package sink forwards audit events to Kafka for downstream consumers
// (SIEM, compliance archival). The sink satisfies audit.Store so it can sit
// behind the publisher like any other backend.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	id "gatekey/pkg/domain"
	audit "gatekey/pkg/platform/audit"
)

const DefaultTopic = "gatekey.audit"

type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects to the given brokers and ensures the audit topic
// exists. Records are keyed by user ID so per-user history stays ordered
// within a partition.
func NewKafkaSink(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	if topic == "" {
		topic = DefaultTopic
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

type kafkaEvent struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

func (s *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	var userID string
	if !event.UserID.IsZero() {
		userID = event.UserID.String()
	}
	payload, err := json.Marshal(kafkaEvent{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UserID:    userID,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		ClientIP:  event.ClientIP,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Value: payload,
	}
	if userID != "" {
		record.Key = []byte(userID)
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.logger.ErrorContext(ctx, "audit event produce failed",
			slog.String("action", event.Action),
			slog.String("error", err.Error()))
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByUser is not supported by the Kafka sink; audit history reads go to a
// queryable store.
func (s *KafkaSink) ListByUser(context.Context, id.UserID) ([]audit.Event, error) {
	return nil, fmt.Errorf("kafka sink does not support reads")
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
