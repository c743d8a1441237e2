// Package kafka forwards audit events to a Kafka topic for downstream
// compliance consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "recproxy/pkg/platform/audit"
)

// Forwarder produces one JSON record per audit event, keyed by the acting
// user so per-user ordering survives partitioning.
type Forwarder struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists. Topic creation
// races are tolerated; anything else fails startup.
func New(ctx context.Context, brokers []string, topic string) (*Forwarder, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil &&
		!errors.Is(err, kerr.TopicAlreadyExists) &&
		!strings.Contains(err.Error(), "TOPIC_ALREADY_EXISTS") {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	return &Forwarder{client: client, topic: topic}, nil
}

func (f *Forwarder) Forward(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(event.UserID),
		Value: payload,
	}
	if err := f.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (f *Forwarder) Close() {
	f.client.Close()
}
