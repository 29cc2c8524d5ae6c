package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrCircuitOpen is returned while the broker is considered down.
var ErrCircuitOpen = errors.New("event publisher circuit open")

// Producer is the part of *kgo.Client the publisher uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes status events to one topic, keyed by permit id so a
// permit's events stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *breaker
}

type KafkaOption func(*KafkaPublisher)

// WithBreaker tunes how many consecutive failures open the circuit and how
// long it stays open.
func WithBreaker(threshold int, cooldown time.Duration) KafkaOption {
	return func(p *KafkaPublisher) {
		p.breaker = newBreaker(threshold, cooldown)
	}
}

func NewKafkaPublisher(producer Producer, topic string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  newBreaker(0, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event StatusChanged) error {
	if !p.breaker.allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.PermitID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte("permit.status_changed")},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.breaker.failure()
		return fmt.Errorf("produce status event: %w", err)
	}
	p.breaker.success()
	return nil
}
