package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"permitflow/internal/permit/models"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func TestKafkaPublisherWritesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "permit.status")
	event := StatusChanged{
		PermitID:   uuid.New(),
		From:       models.StatusPending,
		To:         models.StatusApproved,
		OccurredAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, pub.PublishStatusChanged(context.Background(), event))
	require.Len(t, producer.records, 1)

	record := producer.records[0]
	assert.Equal(t, "permit.status", record.Topic)
	assert.Equal(t, event.PermitID.String(), string(record.Key))

	var decoded StatusChanged
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestKafkaPublisherOpensCircuit(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	pub := NewKafkaPublisher(producer, "permit.status", WithBreaker(2, time.Minute))
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pub.breaker.now = func() time.Time { return now }
	ctx := context.Background()
	event := StatusChanged{PermitID: uuid.New()}

	assert.Error(t, pub.PublishStatusChanged(ctx, event))
	assert.Error(t, pub.PublishStatusChanged(ctx, event))
	assert.ErrorIs(t, pub.PublishStatusChanged(ctx, event), ErrCircuitOpen)
	assert.Len(t, producer.records, 2, "open circuit skips the broker")

	now = now.Add(2 * time.Minute)
	producer.err = nil
	assert.NoError(t, pub.PublishStatusChanged(ctx, event), "half-open probe goes through")
	assert.NoError(t, pub.PublishStatusChanged(ctx, event))
	assert.Len(t, producer.records, 4)
}

func TestBreakerReopensAfterFailedProbe(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	b := newBreaker(3, time.Minute)
	b.now = func() time.Time { return now }

	for range 3 {
		require.True(t, b.allow())
		b.failure()
	}
	assert.False(t, b.allow())

	now = now.Add(time.Minute)
	require.True(t, b.allow())
	b.failure()
	assert.False(t, b.allow(), "a failed probe reopens immediately")
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = Noop{}
	assert.NoError(t, pub.PublishStatusChanged(context.Background(), StatusChanged{}))
}
