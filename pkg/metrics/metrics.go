package metrics

import "time"

type Metrics interface {
	// Business
	RecordOrderCreated(status string)
	RecordOrderMatched(outcome string)
	RecordLifecycleTransition(from, to string)
	RecordUseCaseExecution(useCaseName string, success bool, duration time.Duration)

	// Infrastructure
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	IncInboxMessage(outcome string)
	IncTelemetryRecord(outcome string)
	IncOutboxEventsProcessed(status string)
}

// NewNop returns a Metrics that records nothing, for tests and tools.
func NewNop() Metrics { return nop{} }

type nop struct{}

func (nop) RecordOrderCreated(string)                          {}
func (nop) RecordOrderMatched(string)                          {}
func (nop) RecordLifecycleTransition(string, string)           {}
func (nop) RecordUseCaseExecution(string, bool, time.Duration) {}
func (nop) ObserveHTTPRequestDuration(string, string, string, float64) {
}
func (nop) IncInboxMessage(string)          {}
func (nop) IncTelemetryRecord(string)       {}
func (nop) IncOutboxEventsProcessed(string) {}
