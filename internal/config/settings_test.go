package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("expected compiled-in defaults to be valid, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Settings)
	}{
		{"port too low", func(s *Settings) { s.Port = 0 }},
		{"port too high", func(s *Settings) { s.Port = 70000 }},
		{"too few players", func(s *Settings) { s.Players = 1 }},
		{"too many players", func(s *Settings) { s.Players = 5 }},
		{"non-positive interval", func(s *Settings) { s.BroadcastInterval = 0 }},
		{"non-positive ticks", func(s *Settings) { s.MaxTicks = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Defaults()
			tc.mut(&s)
			if err := s.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadWithNoConfigPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults unchanged, got %+v", s)
	}
}

func TestLoadOverridesFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "port: 6000\nplayers: 4\nsandbox: true\nbroadcastInterval: 100ms\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Port != 6000 || s.Players != 4 || !s.Sandbox {
		t.Fatalf("unexpected settings after load: %+v", s)
	}
	if s.BroadcastInterval != 100*time.Millisecond {
		t.Fatalf("expected broadcast interval overridden, got %v", s.BroadcastInterval)
	}
}

func TestLoadRejectsFileFailingSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 99999\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected out-of-range port to fail schema validation")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("bogusField: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown field to fail schema validation")
	}
}
