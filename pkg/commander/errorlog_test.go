package commander

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestErrorLog_RecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", ErrorLogName)
	l := NewErrorLog(path)
	defer l.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("error log must not be created before the first failure")
	}

	err := errors.New("ssh: handshake failed:\n  unable to authenticate")
	if err := l.Record("10.1.1.1", err, fixedTime); err != nil {
		t.Fatalf("Record: %v", err)
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		t.Fatal(rerr)
	}
	want := "----- 10.1.1.1 ssh: handshake failed: unable to authenticate 10:00:00.000000 -----\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
	if l.Path() != path {
		t.Errorf("Path() = %q", l.Path())
	}
}

func TestErrorLog_ConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), ErrorLogName)
	l := NewErrorLog(path)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(fmt.Sprintf("r%d", i), errors.New("refused"), fixedTime)
		}(i)
	}
	wg.Wait()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 50 {
		t.Fatalf("got %d lines, want 50", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "----- r") || !strings.HasSuffix(line, "refused 10:00:00.000000 -----") {
			t.Errorf("malformed line %q", line)
		}
	}
}

func TestErrorLog_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ErrorLogName)
	if err := os.WriteFile(path, []byte("earlier\n"), 0644); err != nil {
		t.Fatal(err)
	}
	l := NewErrorLog(path)
	l.Record("r1", errors.New("timeout"), fixedTime)
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "earlier\n----- r1 timeout") {
		t.Errorf("log = %q", data)
	}
}
