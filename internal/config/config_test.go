package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsZeroValue(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.EmitJSON || cfg.JSONOutputPath != "" {
		t.Fatalf("expected a zero-value default config, got %+v", cfg)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does_not_exist.json"))
	if err != nil {
		t.Fatalf("expected a missing file to not be an error, got %v", err)
	}
	if cfg.EmitJSON || cfg.JSONOutputPath != "" {
		t.Fatalf("expected the default config for a missing file, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{EmitJSON: true, JSONOutputPath: "out.json"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.EmitJSON != cfg.EmitJSON || loaded.JSONOutputPath != cfg.JSONOutputPath {
		t.Fatalf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("os.WriteFile failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected malformed JSON to produce an error")
	}
}
