package commander

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrorLogName is the shared failure log created in the output directory.
const ErrorLogName = "error.txt"

// ErrorLog is the append-only failure log shared by every task of a run.
// Writes are serialized; the file is created on the first failure.
type ErrorLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewErrorLog returns an ErrorLog writing to path.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Path returns the log location.
func (l *ErrorLog) Path() string {
	return l.path
}

// Record appends one "----- <address> <error> <time> -----" line.
func (l *ErrorLog) Record(address string, err error, at time.Time) error {
	detail := strings.Join(strings.Fields(err.Error()), " ")
	line := fmt.Sprintf("----- %s %s %s -----\n", address, detail, at.Format(TimeFormat))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if dir := filepath.Dir(l.path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating error log directory: %w", err)
			}
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening error log: %w", err)
		}
		l.file = f
	}
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("writing error log: %w", err)
	}
	return nil
}

// Close closes the log file if it was opened.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
