package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("invalid secret")
	ErrInvalidBrief    = errors.New("missing 'brief' field")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrProviderFailure = errors.New("provider failure")
	ErrInternal        = errors.New("internal error")
)

// PublishError marks a failure of the publishing collaborator. It is fatal to
// the task and its message is surfaced to the caller.
type PublishError struct {
	Task string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Task, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// NotifyError describes a failed evaluation callback. It is only ever logged.
type NotifyError struct {
	URL    string
	Status int
	Err    error
}

func (e *NotifyError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notify %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("notify %s: %v", e.URL, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
