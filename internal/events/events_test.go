package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewWithoutBrokersIsNop(t *testing.T) {
	p := New(" , ", "orders", zerolog.Nop())
	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, ParseBrokers(" k1:9092, ,k2:9092"))
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())

	p.Publish(Event{Type: TypeOrderCreated, Key: "abc", BranchID: 2, Payload: map[string]any{"final_amount": "90"}})
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order.created-abc", string(w.msgs[0].Key))
	var evt map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &evt))
	assert.Equal(t, "order.created", evt["type"])
	assert.EqualValues(t, 2, evt["branch_id"])
	assert.True(t, w.closed)
}

func TestKafkaPublisherSwallowsWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, zerolog.Nop())
	assert.NotPanics(t, func() {
		p.Publish(Event{Type: TypeCariPayment, Key: "1"})
		_ = p.Close()
	})
	assert.Empty(t, w.msgs)
}
