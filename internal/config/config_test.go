package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DBPath != "" || cfg.SqlmapPath != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := &Config{
		DBPath:        "/data/scans.db",
		ReportsDir:    "/data/reports",
		SqlmapPath:    "/opt/sqlmap/sqlmap.py",
		ProxyFile:     "/etc/sqlpilot/proxies.txt",
		TamperDir:     "/usr/share/sqlmap/tamper",
		DefaultFormat: "json",
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestGetSet(t *testing.T) {
	cfg := &Config{}

	if err := cfg.Set("sqlmap_path", "/usr/bin/sqlmap"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := cfg.Get("sqlmap_path")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "/usr/bin/sqlmap" {
		t.Errorf("Get = %q", got)
	}
}

func TestSetUnknownKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetDefaultFormatValidation(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("default_format", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
	for _, v := range []string{"", "table", "json"} {
		if err := cfg.Set("default_format", v); err != nil {
			t.Errorf("Set(default_format, %q): %v", v, err)
		}
	}
}

func TestValidKeysCoverAllFields(t *testing.T) {
	for _, k := range ValidKeys() {
		if !validKeys[k] {
			t.Errorf("ValidKeys lists %q but validKeys does not allow it", k)
		}
	}
	if len(ValidKeys()) != len(validKeys) {
		t.Errorf("ValidKeys has %d entries, validKeys has %d", len(ValidKeys()), len(validKeys))
	}
}
