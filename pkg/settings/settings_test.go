package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetWorkers(); got != 10 {
		t.Errorf("GetWorkers() = %d, want 10", got)
	}
	if got := s.GetPort(); got != 22 {
		t.Errorf("GetPort() = %d, want 22", got)
	}
	if got := s.GetTimeout(); got != 10*time.Second {
		t.Errorf("GetTimeout() = %v", got)
	}
	if got := s.GetCommandTimeout(); got != time.Minute {
		t.Errorf("GetCommandTimeout() = %v", got)
	}
}

func TestSettings_SetGet(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"workers", "25", false},
		{"workers", "0", true},
		{"workers", "many", true},
		{"port", "2222", false},
		{"port", "70000", true},
		{"timeout", "5s", false},
		{"timeout", "-1s", true},
		{"command_timeout", "2m", false},
		{"command_timeout", "soon", true},
		{"output_dir", "/var/tmp/runs", false},
		{"profiles", "/etc/commander/profiles.yaml", false},
		{"audit_log", "/var/log/commander/audit.log", false},
		{"network", "prod", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestSettings_TypedGetters(t *testing.T) {
	s := &Settings{}
	s.Set("workers", "3")
	s.Set("port", "2222")
	s.Set("timeout", "3s")
	s.Set("command_timeout", "90s")

	if s.GetWorkers() != 3 || s.GetPort() != 2222 {
		t.Errorf("workers/port = %d/%d", s.GetWorkers(), s.GetPort())
	}
	if s.GetTimeout() != 3*time.Second || s.GetCommandTimeout() != 90*time.Second {
		t.Errorf("timeouts = %v/%v", s.GetTimeout(), s.GetCommandTimeout())
	}
}

func TestSettings_GetUnknown(t *testing.T) {
	if _, err := (&Settings{}).Get("bogus"); err == nil {
		t.Error("Get(bogus) should fail")
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{Workers: 4, Port: 2222, OutputDir: "/tmp", AuditLog: "a.log"}
	s.Clear()
	if *s != (Settings{}) {
		t.Errorf("Clear() left %+v", *s)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{Workers: 20, Timeout: "15s", OutputDir: "/srv/out"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("loaded %+v, want %+v", *loaded, *s)
	}
}

func TestSettings_LoadMissing(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *s != (Settings{}) {
		t.Errorf("missing file should give empty settings, got %+v", *s)
	}
}

func TestSettings_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid JSON")
	}
}
