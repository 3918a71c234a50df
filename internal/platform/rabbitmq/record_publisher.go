package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragquiz/internal/model"
)

// RecordPublisher ships generation records to the persistence queue.
type RecordPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewRecordPublisher(conn *amqp.Connection, queueName string) *RecordPublisher {
	return &RecordPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *RecordPublisher) Publish(ctx context.Context, rec model.GenerationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal generation record failed: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    rec.RequestID,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return fmt.Errorf("publish generation record failed: %w", err)
	}
	return nil
}
