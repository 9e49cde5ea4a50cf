package event

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/skyops/skycourier/pkg/logger"
)

type RedisIdempotencyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// WrapIdempotency drops exact duplicate deliveries before they reach the
// engine. The record store's version guard is the real idempotence boundary;
// this is a cheaper first pass for redeliveries inside the TTL.
func WrapIdempotency(
	log logger.Logger,
	store RedisIdempotencyStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) (Result, error) {
		var eventID string

		if v, ok := headers["x-event-id"]; ok {
			eventID = fmt.Sprintf("%v", v)
		}

		if eventID == "" {
			hash := sha256.Sum256(msg)
			eventID = fmt.Sprintf("hash:%x", hash)
		}

		key := fmt.Sprintf("dedup:%s:%s", handlerName, eventID)

		saved, err := store.SetNX(ctx, key, "processing", ttl)
		if err != nil {
			// Fail closed: without the dedup store we cannot tell a replay
			// from a first delivery, so leave the message for redelivery.
			log.Error(ctx, "idempotency store unavailable", logger.WithError(err))
			return ResultRetry, fmt.Errorf("idempotency store unavailable: %w", err)
		}

		if !saved {
			log.Info(ctx, "duplicate event dropped by idempotency guard",
				logger.String("handler", handlerName),
				logger.String("event_id", eventID),
			)
			return ResultAck, nil
		}

		result, err := next(ctx, msg, headers)

		// A retried message must be able to pass the guard again.
		if result == ResultRetry {
			if delErr := store.Del(ctx, key); delErr != nil {
				log.Error(ctx, "failed to release idempotency lock",
					logger.String("key", key),
					logger.WithError(delErr),
				)
			}
		}

		return result, err
	}
}
