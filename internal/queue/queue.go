// Package queue carries new-submission signals over RabbitMQ. Delivery is
// at-least-once; consumers hand each signal to the pipeline orchestrator,
// whose idempotency makes duplicate deliveries safe.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/store"
)

// DefaultQueueName is the durable queue submissions signals travel on.
const DefaultQueueName = "submission_queue"

// publishTimeout bounds a single publish.
const publishTimeout = 5 * time.Second

// Signal is the wire message: the submission to process.
type Signal struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}

// Queue wraps a RabbitMQ connection with one durable queue declared.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
	logger  *zap.Logger
}

// Connect dials RabbitMQ and declares the durable queue.
func Connect(url, queueName string, logger *zap.Logger) (*Queue, error) {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queueName, err)
	}

	logger.Info("connected to rabbitmq", zap.String("queue", q.Name))
	return &Queue{conn: conn, channel: ch, name: q.Name, logger: logger}, nil
}

// Close releases the channel and connection.
func (q *Queue) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return fmt.Errorf("closing channel: %w", err)
	}
	return q.conn.Close()
}

// TriggerProcessing publishes a persistent new-submission signal.
func (q *Queue) TriggerProcessing(ctx context.Context, submissionID uuid.UUID) error {
	body, err := json.Marshal(Signal{SubmissionID: submissionID})
	if err != nil {
		return fmt.Errorf("encoding signal: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = q.channel.PublishWithContext(
		pubCtx,
		"",     // default exchange
		q.name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing signal for %s: %w", submissionID, err)
	}

	q.logger.Info("published processing signal", zap.String("submission_id", submissionID.String()))
	return nil
}

// Handler processes one submission signal.
type Handler func(ctx context.Context, submissionID uuid.UUID) error

// Consume delivers signals to handler until ctx is cancelled or the channel
// closes. Deliveries are acked after the handler returns; a handler error
// requeues the delivery so another worker can retry it, except for signals
// that can never succeed (unknown submission), which are discarded.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	// Hand workers one signal at a time so slow extractions don't starve
	// idle consumers.
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("setting prefetch: %w", err)
	}

	msgs, err := q.channel.Consume(
		q.name,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("registering consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq channel closed")
			}
			q.handleDelivery(ctx, d, handler)
		}
	}
}

func (q *Queue) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	var sig Signal
	if err := json.Unmarshal(d.Body, &sig); err != nil {
		q.logger.Warn("discarding malformed signal", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, sig.SubmissionID); err != nil {
		// A signal for a submission that no longer exists can never succeed;
		// requeueing it would redeliver the same message forever and starve
		// the prefetch window.
		if store.IsNotFound(err) {
			q.logger.Warn("discarding signal for unknown submission",
				zap.String("submission_id", sig.SubmissionID.String()),
				zap.Error(err))
			_ = d.Nack(false, false)
			return
		}
		q.logger.Error("signal handling failed, requeueing",
			zap.String("submission_id", sig.SubmissionID.String()),
			zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
