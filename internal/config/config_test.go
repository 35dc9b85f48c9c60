package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attendance.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
sheets:
  spreadsheet_id: "1abc"
database:
  path: `+filepath.Join(t.TempDir(), "test.db")+`
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.MaxAge != 30*time.Second {
		t.Errorf("max age = %v, want 30s", cfg.Cache.MaxAge)
	}
	if cfg.Cache.RefreshInterval != 30*time.Second {
		t.Errorf("refresh interval = %v, want 30s", cfg.Cache.RefreshInterval)
	}
	if cfg.Clock.AfternoonCutoffHour != 8 {
		t.Errorf("cutoff = %d, want 8", cfg.Clock.AfternoonCutoffHour)
	}
	if cfg.Verification.Enabled {
		t.Error("verification should default to disabled")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
sheets:
  spreadsheet_id: "1abc"
  sheet_ids:
    CE-5: 123456
    PSK: 7890
cache:
  max_age: 1m
clock:
  afternoon_cutoff_hour: 9
database:
  path: `+filepath.Join(t.TempDir(), "test.db")+`
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Cache.MaxAge != time.Minute {
		t.Errorf("max age = %v", cfg.Cache.MaxAge)
	}
	if cfg.Clock.AfternoonCutoffHour != 9 {
		t.Errorf("cutoff = %d", cfg.Clock.AfternoonCutoffHour)
	}
	if gid := cfg.Sheets.SheetIDs["CE-5"]; gid != 123456 {
		t.Errorf("sheet id = %d", gid)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// Sheets are enabled by default and then require a spreadsheet ID, so a
	// bare default load fails validation.
	t.Setenv("ATTENDANCE_SHEETS_ENABLED", "false")
	t.Setenv("ATTENDANCE_DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheets.Enabled {
		t.Error("env override not applied")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing spreadsheet id",
			content: `
database:
  path: /tmp/test.db
`,
		},
		{
			name: "invalid port",
			content: `
server:
  port: 99999
sheets:
  spreadsheet_id: "1abc"
database:
  path: /tmp/test.db
`,
		},
		{
			name: "cutoff out of range",
			content: `
sheets:
  spreadsheet_id: "1abc"
clock:
  afternoon_cutoff_hour: 13
database:
  path: /tmp/test.db
`,
		},
		{
			name: "zero cache size",
			content: `
sheets:
  spreadsheet_id: "1abc"
cache:
  size: 0
database:
  path: /tmp/test.db
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
