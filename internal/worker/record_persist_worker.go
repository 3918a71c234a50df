package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragquiz/internal/model"
	"ragquiz/internal/platform/rabbitmq"
)

type RecordStore interface {
	Create(ctx context.Context, rec *model.GenerationRecord) error
}

// RecordPersistWorker drains the generation record queue into MySQL.
type RecordPersistWorker struct {
	conn      *amqp.Connection
	store     RecordStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRecordPersistWorker(conn *amqp.Connection, store RecordStore, queueName string, logger *zap.Logger) *RecordPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With(zap.String("queue", queueName)),
	}
}

func (w *RecordPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		w.logger.Info("record persist worker started")
		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()
	return nil
}

// process acks stored records, drops undecodable ones and requeues a failed
// insert once.
func (w *RecordPersistWorker) process(ctx context.Context, d amqp.Delivery) {
	var rec model.GenerationRecord
	if err := json.Unmarshal(d.Body, &rec); err != nil {
		w.logger.Error("decode generation record failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.store.Create(ctx, &rec); err != nil {
		requeue := !d.Redelivered
		w.logger.Error("persist generation record failed",
			zap.String("request_id", rec.RequestID),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

func (w *RecordPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
