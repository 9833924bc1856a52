package lightstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-lightstate/pkg/storage"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{"name": "todos"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "todos" {
		t.Fatalf("expected name from raw config, got %q", cfg.Name)
	}
	if cfg.GraceDelay() != DefaultGraceDelay {
		t.Fatalf("expected default grace delay, got %v", cfg.GraceDelay())
	}
	if cfg.Storage.Name != "" {
		t.Fatalf("expected persistence disabled by default, got %q", cfg.Storage.Name)
	}
}

func TestLoadConfigDecodesNestedSections(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{
		"name":           "todos",
		"grace_delay_ms": 50,
		"storage": map[string]any{
			"name":   "TodoStorage",
			"driver": "file",
			"dir":    t.TempDir(),
			"format": "yaml",
		},
		"activity": map[string]any{
			"enabled": false,
			"channel": "ui",
		},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GraceDelay() != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %v", cfg.GraceDelay())
	}
	if cfg.Storage.Name != "TodoStorage" || cfg.Storage.Driver != "file" || cfg.Storage.Format != "yaml" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Activity.Enabled || cfg.Activity.Channel != "ui" {
		t.Fatalf("unexpected activity config: %+v", cfg.Activity)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "defaults", cfg: DefaultConfig(), ok: true},
		{name: "missing name", cfg: Config{}, ok: false},
		{name: "negative grace delay", cfg: Config{Name: "x", GraceDelayMS: -1}, ok: false},
		{name: "file storage without dir", cfg: Config{Name: "x", Storage: StorageConfig{Name: "X", Driver: "file"}}, ok: false},
		{name: "driver ignored without storage name", cfg: Config{Name: "x", Storage: StorageConfig{Driver: "redis"}}, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigFromLoader(t *testing.T) {
	loader := RawConfigLoaderFunc(func(context.Context) (map[string]any, error) {
		return map[string]any{"name": "counter"}, nil
	})
	cfg, err := LoadConfigFrom(context.Background(), loader)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "counter" {
		t.Fatalf("expected counter, got %q", cfg.Name)
	}
}

func TestNewFromConfigPersistsThroughFileStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Name = "todos"
	cfg.Storage = StorageConfig{Name: "TodoStorage", Driver: storage.DriverFile, Dir: dir, Format: "json"}
	ctx := context.Background()

	c, closeFn, err := NewFromConfig(ctx, State{"loading": false}, cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	if _, err := c.SetState(ctx, Patch{"loading": true}); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, closeFn, err := NewFromConfig(ctx, State{"loading": false}, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer closeFn()
	if reopened.Value("loading") != true {
		t.Fatalf("expected persisted state, got %v", reopened.GetState())
	}
	if reopened.StorageName() != "TodoStorage" {
		t.Fatalf("unexpected storage name %q", reopened.StorageName())
	}
	if _, err := os.Stat(filepath.Join(dir, "TodoStorage.json")); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}
}

func TestNewFromConfigRejectsInvalidConfig(t *testing.T) {
	c, closeFn, err := NewFromConfig(context.Background(), State{}, Config{})
	if err == nil || c != nil {
		t.Fatalf("expected validation error")
	}
	if closeFn == nil || closeFn() != nil {
		t.Fatalf("expected no-op close function")
	}
}
