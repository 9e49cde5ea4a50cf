package event

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"

	carrier "github.com/skyops/skycourier/pkg/otel"
)

// Channel is the slice of the AMQP channel the publisher uses. *amqp.Channel
// satisfies it.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// declareTopology makes the inbox queue and its binding to amq.direct exist.
// Both sides of the queue declare it, so the first publish is routable even
// before a consumer has ever started.
func declareTopology(ch Channel, queueName string) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return ch.QueueBind(q.Name, queueName, "amq.direct", false, nil)
}

// Publisher pushes order-created events onto the matching inbox, carrying the
// originating trace context in the AMQP headers.
type Publisher struct {
	Channel    Channel
	RoutingKey string
}

func NewPublisher(ch Channel, routingKey string) (*Publisher, error) {
	if err := declareTopology(ch, routingKey); err != nil {
		return nil, fmt.Errorf("error when configuring topology: %w", err)
	}
	return &Publisher{Channel: ch, RoutingKey: routingKey}, nil
}

func (p *Publisher) Publish(ctx context.Context, messageID string, body []byte) error {
	headers := make(amqp.Table)
	otel.GetTextMapPropagator().Inject(ctx, carrier.AMQPHeadersCarrier(headers))
	headers["x-event-id"] = messageID

	return p.Channel.PublishWithContext(
		ctx,
		"amq.direct",
		p.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:     headers,
			ContentType: "application/json",
			MessageId:   messageID,
			Timestamp:   time.Now(),
			Body:        body,
		})
}
