package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	cfg := Default()
	cfg.Params.Nodes = 320
	cfg.Params.Seed = 7
	cfg.Traffic.PeakFactor = 3.5

	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for existing file")
	}
	if got.Params.Nodes != 320 || got.Params.Seed != 7 {
		t.Errorf("Params not preserved: %+v", got.Params)
	}
	if got.Traffic.PeakFactor != 3.5 {
		t.Errorf("Traffic not preserved: %+v", got.Traffic)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "params.toml"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if cfg != nil {
		t.Error("Load of missing file should return nil")
	}

	// LoadOrDefault falls back to defaults
	cfg, err = store.LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg == nil || cfg.Params.Nodes != Default().Params.Nodes {
		t.Errorf("LoadOrDefault should return defaults, got %+v", cfg)
	}
}

func TestStorePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	partial := "[params]\nnodes = 500\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write partial config: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Params.Nodes != 500 {
		t.Errorf("explicit key ignored: nodes = %d", cfg.Params.Nodes)
	}
	def := Default()
	if cfg.Params.Threshold != def.Params.Threshold {
		t.Errorf("missing key should keep default threshold, got %v", cfg.Params.Threshold)
	}
	if cfg.Traffic.DriveSpeed != def.Traffic.DriveSpeed {
		t.Errorf("missing traffic section should keep defaults, got %+v", cfg.Traffic)
	}
}

func TestStoreRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	bad := "[params]\nnodes = 1\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("Load should reject nodes = 1")
	}
}

func TestStoreRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(path, []byte("[params\nnodes"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("Load should reject malformed TOML")
	}
}

func TestStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Delete should remove the file")
	}

	// Deleting again is fine
	if err := store.Delete(); err != nil {
		t.Errorf("Delete of missing file: %v", err)
	}
}
