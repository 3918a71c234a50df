package worker

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"ragquiz/internal/model"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type memStore struct {
	records []model.GenerationRecord
	err     error
}

func (m *memStore) Create(ctx context.Context, rec *model.GenerationRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *rec)
	return nil
}

func TestRecordPersistWorker_Process(t *testing.T) {
	body := []byte(`{"request_id":"r-1","kind":"qa","query":"What is a ballistic missile?","status":"ok","returned_count":3}`)

	t.Run("stores and acks", func(t *testing.T) {
		store := &memStore{}
		w := NewRecordPersistWorker(nil, store, "generation.records", zaptest.NewLogger(t))
		ack := &ackRecorder{}

		w.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.True(t, ack.acked)
		assert.Len(t, store.records, 1)
		assert.Equal(t, "r-1", store.records[0].RequestID)
		assert.Equal(t, 3, store.records[0].ReturnedCount)
	})

	t.Run("drops undecodable body", func(t *testing.T) {
		w := NewRecordPersistWorker(nil, &memStore{}, "q", zaptest.NewLogger(t))
		ack := &ackRecorder{}

		w.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("requeues first failure only", func(t *testing.T) {
		w := NewRecordPersistWorker(nil, &memStore{err: errors.New("mysql gone")}, "q", zaptest.NewLogger(t))

		first := &ackRecorder{}
		w.process(context.Background(), amqp.Delivery{Acknowledger: first, Body: body})
		assert.True(t, first.nacked)
		assert.True(t, first.requeue)

		second := &ackRecorder{}
		w.process(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, Redelivered: true})
		assert.True(t, second.nacked)
		assert.False(t, second.requeue)
	})
}
