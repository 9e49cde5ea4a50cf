package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/skyops/skycourier/pkg/logger"
)

// Handler processes one telemetry record. A nil return checkpoints past the
// record; an error leaves the offset unmarked so the record is reprocessed.
type Handler func(ctx context.Context, key, value []byte) error

// ConsumerGroup owns a share of the telemetry topic's partitions. Kafka's
// group rebalancing hands each instance a disjoint partition set, and offsets
// are committed only after the handler succeeds, so a restarted tracker
// resumes from its last checkpoint.
type ConsumerGroup struct {
	group   sarama.ConsumerGroup
	topic   string
	handler Handler
	logger  logger.Logger
}

func NewConsumerGroup(brokers []string, groupID, topic string, handler Handler, log logger.Logger) (*ConsumerGroup, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Group.Session.Timeout = 45 * time.Second
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &ConsumerGroup{
		group:   group,
		topic:   topic,
		handler: handler,
		logger:  log,
	}, nil
}

func (c *ConsumerGroup) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error(ctx, "consumer group error", logger.WithError(err))
		}
	}()

	for {
		err := c.group.Consume(ctx, []string{c.topic}, &claimHandler{
			handler: c.handler,
			logger:  c.logger,
		})
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Error(ctx, "consume session ended with error", logger.WithError(err))
		}
		// Otherwise a rebalance happened; loop into a new session.
	}
}

func (c *ConsumerGroup) Close() error {
	return c.group.Close()
}

type claimHandler struct {
	handler Handler
	logger  logger.Logger
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if err := h.handler(session.Context(), msg.Key, msg.Value); err != nil {
				// Do not mark: the record replays after the session ends.
				h.logger.Error(session.Context(), "telemetry record failed, leaving offset unmarked",
					logger.String("partition_key", string(msg.Key)),
					logger.Int("partition", int(msg.Partition)),
					logger.WithError(err),
				)
				return err
			}

			session.MarkMessage(msg, "")
		}
	}
}
