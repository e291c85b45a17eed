// Package audit records one event per target of a batch run.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is the outcome of one target in one run.
type Event struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Device    string        `json:"device"`
	Kind      string        `json:"kind,omitempty"`
	Mode      string        `json:"mode"`
	Commands  int           `json:"commands"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	User        string
	Mode        string
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, device, mode string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Mode:      mode,
	}
}

// NewRunID returns an identifier shared by every event of one batch.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun sets the batch identifier
func (e *Event) WithRun(id string) *Event {
	e.RunID = id
	return e
}

// WithKind sets the device kind
func (e *Event) WithKind(kind string) *Event {
	e.Kind = kind
	return e
}

// WithCommands sets the number of commands or config lines sent
func (e *Event) WithCommands(n int) *Event {
	e.Commands = n
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	e.Error = ""
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the time spent on the target
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func (f Filter) matches(event *Event) bool {
	if f.Device != "" && event.Device != f.Device {
		return false
	}
	if f.User != "" && event.User != f.User {
		return false
	}
	if f.Mode != "" && event.Mode != f.Mode {
		return false
	}
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	if !f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && event.Timestamp.After(f.EndTime) {
		return false
	}
	if f.SuccessOnly && !event.Success {
		return false
	}
	if f.FailureOnly && event.Success {
		return false
	}
	return true
}
