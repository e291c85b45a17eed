// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy of a batch run
var (
	ErrSkip             = errors.New("host entry skipped")
	ErrConnect          = errors.New("connect failed")
	ErrCommand          = errors.New("command failed")
	ErrConfig           = errors.New("configuration failed")
	ErrDisconnect       = errors.New("disconnect failed")
	ErrNotConnected     = errors.New("session not connected")
	ErrValidationFailed = errors.New("validation failed")
)

// SkipError describes a host file line that could not be used as a target
type SkipError struct {
	Line   int
	Raw    string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Raw, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return ErrSkip
}

// ConnectError represents a failure to open or authenticate a session
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

// Unwrap exposes both ErrConnect and the transport cause to errors.Is.
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnect, e.Err}
}

// NewConnectError creates a connect error
func NewConnectError(address string, err error) *ConnectError {
	return &ConnectError{Address: address, Err: err}
}

// CommandError represents a show command that failed mid-sequence
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %q rejected: %s", e.Command, firstLine(e.Output))
}

func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommand}
	}
	return []error{ErrCommand, e.Err}
}

// NewCommandError creates a command error
func NewCommandError(command, output string, err error) *CommandError {
	return &CommandError{Command: command, Output: output, Err: err}
}

// ConfigError represents a failed configuration batch
type ConfigError struct {
	Line   string // offending line, "" when the batch failed as a whole
	Output string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Line != "" && e.Err != nil:
		return fmt.Sprintf("config line %q: %v", e.Line, e.Err)
	case e.Line != "":
		return fmt.Sprintf("config line %q rejected: %s", e.Line, firstLine(e.Output))
	case e.Err != nil:
		return fmt.Sprintf("config batch: %v", e.Err)
	}
	return "config batch rejected"
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfig}
	}
	return []error{ErrConfig, e.Err}
}

// NewConfigError creates a config error
func NewConfigError(line, output string, err error) *ConfigError {
	return &ConfigError{Line: line, Output: output, Err: err}
}

// DisconnectError wraps a failure while closing a session. It is logged, never escalated.
type DisconnectError struct {
	Address string
	Err     error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnect %s: %v", e.Address, e.Err)
}

func (e *DisconnectError) Unwrap() []error {
	return []error{ErrDisconnect, e.Err}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
