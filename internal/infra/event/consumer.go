package event

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skyops/skycourier/pkg/logger"
	carrier "github.com/skyops/skycourier/pkg/otel"
)

// Consumer drains the order-created inbox and feeds each message to the
// handler. The handler's Result decides the fate of the message: Ack removes
// it, Retry holds the message for RetryDelay and then nacks it back onto the
// queue so the broker redelivers it. The delay keeps a message that cannot
// make progress yet (no active drones, say) from spinning hot through the
// queue.
type Consumer struct {
	Conn       *amqp.Connection
	Handler    MessageHandler
	Prefetch   int
	RetryDelay time.Duration
	Logger     logger.Logger
}

func NewConsumer(conn *amqp.Connection, handler MessageHandler, prefetch int, retryDelay time.Duration, l logger.Logger) *Consumer {
	return &Consumer{
		Conn:       conn,
		Handler:    handler,
		Prefetch:   prefetch,
		RetryDelay: retryDelay,
		Logger:     l,
	}
}

func (c *Consumer) Start(ctx context.Context, queueName string) error {
	ch, err := c.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareTopology(ch, queueName); err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	c.Logger.Info(ctx, "waiting for order events", logger.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", queueName)
			}
			c.process(ctx, queueName, d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, queueName string, d amqp.Delivery) {
	amqpCarrier := carrier.AMQPHeadersCarrier(d.Headers)
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, amqpCarrier)

	tracer := otel.GetTracerProvider().Tracer("matcher-tracer")
	msgCtx, span := tracer.Start(msgCtx, "MatchOrder", trace.WithAttributes(
		attribute.String("queue.name", queueName),
		attribute.String("messaging.message_id", d.MessageId),
	))
	defer span.End()

	result, err := c.Handler(msgCtx, d.Body, d.Headers)
	if err != nil {
		c.Logger.Warn(msgCtx, "handler finished with error",
			logger.String("queue", queueName),
			logger.String("result", result.String()),
			logger.WithError(err),
		)
		span.RecordError(err)
	}

	switch result {
	case ResultRetry:
		// Requeue: the broker's redelivery is the retry policy. Wait before
		// the nack so prefetch throttles how fast the message comes back.
		c.wait(ctx)
		if err := d.Nack(false, true); err != nil {
			c.Logger.Error(msgCtx, "failed to nack message", logger.WithError(err))
		}
	default:
		if err := d.Ack(false); err != nil {
			c.Logger.Error(msgCtx, "failed to ack message", logger.WithError(err))
		}
	}
}

func (c *Consumer) wait(ctx context.Context) {
	if c.RetryDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
