package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvent_New(t *testing.T) {
	event := NewEvent("netops", "core1.smq", "show")

	if event.User != "netops" {
		t.Errorf("User = %q, want %q", event.User, "netops")
	}
	if event.Device != "core1.smq" {
		t.Errorf("Device = %q, want %q", event.Device, "core1.smq")
	}
	if event.Mode != "show" {
		t.Errorf("Mode = %q, want %q", event.Mode, "show")
	}
	if len(event.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", event.ID)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if other := NewEvent("netops", "core1.smq", "show"); other.ID == event.ID {
		t.Error("event IDs should be unique")
	}
}

func TestEvent_Chaining(t *testing.T) {
	event := NewEvent("netops", "fw1", "config").
		WithRun("run-1").
		WithKind("cisco_asa").
		WithCommands(4).
		WithDuration(time.Second).
		WithError(errors.New("connect fw1: timeout"))

	if event.RunID != "run-1" || event.Kind != "cisco_asa" || event.Commands != 4 {
		t.Errorf("event = %+v", event)
	}
	if event.Success {
		t.Error("Success should be false after WithError")
	}
	if event.Error != "connect fw1: timeout" {
		t.Errorf("Error = %q", event.Error)
	}

	event.WithSuccess()
	if !event.Success || event.Error != "" {
		t.Errorf("WithSuccess did not clear failure: %+v", event)
	}
}

func newTestLogger(t *testing.T, rotation RotationConfig) *FileLogger {
	t.Helper()
	l, err := NewFileLogger(filepath.Join(t.TempDir(), "logs", "audit.log"), rotation)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestFileLogger_LogAndQuery(t *testing.T) {
	l := newTestLogger(t, RotationConfig{})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*Event{
		{ID: "1", RunID: "a", Timestamp: base, User: "netops", Device: "r1", Mode: "show", Success: true},
		{ID: "2", RunID: "a", Timestamp: base.Add(time.Minute), User: "netops", Device: "r2", Mode: "show", Error: "boom"},
		{ID: "3", RunID: "b", Timestamp: base.Add(time.Hour), User: "admin", Device: "r1", Mode: "config", Success: true},
	}
	for _, e := range events {
		if err := l.Log(e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"1", "2", "3"}},
		{"device", Filter{Device: "r1"}, []string{"1", "3"}},
		{"user", Filter{User: "admin"}, []string{"3"}},
		{"mode", Filter{Mode: "show"}, []string{"1", "2"}},
		{"run", Filter{RunID: "a"}, []string{"1", "2"}},
		{"failures", Filter{FailureOnly: true}, []string{"2"}},
		{"successes", Filter{SuccessOnly: true}, []string{"1", "3"}},
		{"start time", Filter{StartTime: base.Add(30 * time.Second)}, []string{"2", "3"}},
		{"end time", Filter{EndTime: base.Add(30 * time.Second)}, []string{"1"}},
		{"limit", Filter{Limit: 2}, []string{"1", "2"}},
		{"offset", Filter{Offset: 1}, []string{"2", "3"}},
		{"offset past end", Filter{Offset: 5}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if got == nil {
				t.Fatal("Query returned nil slice")
			}
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestReadEvents_MissingFile(t *testing.T) {
	events, err := ReadEvents(filepath.Join(t.TempDir(), "nope.log"), Filter{})
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events", len(events))
	}
}

func TestReadEvents_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	data := `{"id":"1","device":"r1","success":true}
not json
{"id":"2","device":"r2"}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	events, err := ReadEvents(path, Filter{})
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	l := newTestLogger(t, RotationConfig{MaxSize: 1, MaxBackups: 2})
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 0; i < 5; i++ {
		if err := l.Log(NewEvent("netops", "r1", "show")); err != nil {
			t.Fatalf("Log %d: %v", i, err)
		}
	}

	backups, err := filepath.Glob(l.Path() + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("backups = %v, want 2 files", backups)
	}
	events, err := l.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("active file has %d events, want 1", len(events))
	}
}

func TestFileLogger_ConcurrentLog(t *testing.T) {
	l := newTestLogger(t, RotationConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(NewEvent("netops", "r1", "show").WithSuccess())
		}()
	}
	wg.Wait()

	events, err := l.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 20 {
		t.Errorf("got %d events, want 20", len(events))
	}
}

func TestFileLogger_LogAfterClose(t *testing.T) {
	l := newTestLogger(t, RotationConfig{})
	l.Close()
	if err := l.Log(NewEvent("netops", "r1", "show")); err == nil {
		t.Error("Log after Close should fail")
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
