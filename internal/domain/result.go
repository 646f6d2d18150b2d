package domain

import "errors"

// Status classifies the outcome of a collaborator call.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Result is the typed outcome of an optional evidence fetch. Degraded and
// failed results carry the reason so callers can log it instead of dropping it.
type Result[T any] struct {
	Value  T
	Status Status
	Reason string
	Err    error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// Degraded reports an expected absence ("not found", "no data", disabled source).
func Degraded[T any](reason string) Result[T] {
	return Result[T]{Status: StatusDegraded, Reason: reason}
}

// Failed reports an unexpected error.
func Failed[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{Status: StatusFailed, Reason: err.Error(), Err: err}
}

// Get returns the value and whether it is usable.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.Status == StatusOK
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Status == StatusOK
}
