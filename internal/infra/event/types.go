package event

import "context"

// Result is the terminal disposition of an inbox message.
type Result int

const (
	// ResultAck removes the message from the queue, whether it was processed
	// or permanently discarded.
	ResultAck Result = iota
	// ResultRetry leaves the message unacknowledged so the broker redelivers
	// it; this is the system's only retry mechanism.
	ResultRetry
)

func (r Result) String() string {
	if r == ResultRetry {
		return "retry"
	}
	return "ack"
}

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]interface{}) (Result, error)
