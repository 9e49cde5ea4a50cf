package matching

import "context"

// Outcome tells the inbox consumer what to do with the message after the
// engine ran. Ack removes it; RetryLater leaves it unacknowledged so the
// inbox redelivers after its visibility window.
type Outcome int

const (
	Ack Outcome = iota
	RetryLater
)

func (o Outcome) String() string {
	if o == RetryLater {
		return "retry"
	}
	return "ack"
}

type UseCase interface {
	Execute(ctx context.Context, ev Event) (Outcome, error)
}
