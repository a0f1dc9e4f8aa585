package loader

import "time"

// Status is the fate of one settled request.
type Status string

const (
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
	StatusCanceled   Status = "canceled"
)

// Outcome describes how Settle handled a result.
type Outcome struct {
	RequestID string
	Status    Status
	Count     int
	ErrKind   string
	Err       error
	Elapsed   time.Duration
}

// Applied reports whether the result changed state.
func (o Outcome) Applied() bool {
	return o.Status == StatusSucceeded || o.Status == StatusFailed
}
