package lightstate

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-lightstate/pkg/activity"
	"github.com/goliatone/go-lightstate/pkg/storage"
)

// StorageConfig selects the persistence key and backend of a container. An
// empty Name disables persistence.
type StorageConfig struct {
	Name   string `koanf:"name" mapstructure:"name"`
	Driver string `koanf:"driver" mapstructure:"driver"`
	Dir    string `koanf:"dir" mapstructure:"dir"`
	Format string `koanf:"format" mapstructure:"format"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

// Backend returns the pkg/storage configuration.
func (c StorageConfig) Backend() storage.Config {
	return storage.Config{Driver: c.Driver, Dir: c.Dir, Format: c.Format, DSN: c.DSN}
}

// Config describes a container built by NewFromConfig.
type Config struct {
	Name         string          `koanf:"name" mapstructure:"name"`
	GraceDelayMS int             `koanf:"grace_delay_ms" mapstructure:"grace_delay_ms"`
	Storage      StorageConfig   `koanf:"storage" mapstructure:"storage"`
	Activity     activity.Config `koanf:"activity" mapstructure:"activity"`
}

func DefaultConfig() Config {
	return Config{
		Name:         "lightstate",
		GraceDelayMS: int(DefaultGraceDelay / time.Millisecond),
		Storage:      StorageConfig{Driver: storage.DriverMemory},
		Activity:     activity.Config{Enabled: true, Channel: activity.DefaultChannel},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalidConfig("name", "name is required")
	}
	if c.GraceDelayMS < 0 {
		return invalidConfig("grace_delay_ms", "grace_delay_ms must not be negative")
	}
	if strings.TrimSpace(c.Storage.Name) == "" {
		return nil
	}
	if err := c.Storage.Backend().Validate(); err != nil {
		return invalidConfig("storage", err.Error())
	}
	return nil
}

// GraceDelay returns the configured grace delay.
func (c Config) GraceDelay() time.Duration {
	return time.Duration(c.GraceDelayMS) * time.Millisecond
}

// RawConfigLoader produces the raw configuration map, for example from a
// viper instance's AllSettings.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// RawConfigLoaderFunc adapts a function to RawConfigLoader.
type RawConfigLoaderFunc func(ctx context.Context) (map[string]any, error)

func (fn RawConfigLoaderFunc) LoadRaw(ctx context.Context) (map[string]any, error) {
	return fn(ctx)
}

// LoadConfig decodes raw over DefaultConfig and validates the result.
func LoadConfig(raw map[string]any) (Config, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(DefaultConfig()),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFrom is LoadConfig over a loader.
func LoadConfigFrom(ctx context.Context, loader RawConfigLoader) (Config, error) {
	if loader == nil {
		return LoadConfig(nil)
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	return LoadConfig(raw)
}

// NewFromConfig opens the configured storage backend and builds a container
// over it. The returned close function releases the backend; it is never nil.
// opts are applied after the configuration and take precedence.
func NewFromConfig(ctx context.Context, initState State, cfg Config, opts ...Option) (*Container, func() error, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, noopClose, err
	}

	base := []Option{
		WithContext(ctx),
		WithActivityConfig(cfg.Activity),
	}
	if cfg.GraceDelayMS > 0 {
		base = append(base, WithDefaultGraceDelay(cfg.GraceDelay()))
	}

	closeFn := noopClose
	if strings.TrimSpace(cfg.Storage.Name) != "" {
		backend, err := storage.Open(ctx, cfg.Storage.Backend())
		if err != nil {
			return nil, noopClose, err
		}
		closeFn = backend.Close
		base = append(base, WithStorage(cfg.Storage.Name, backend))
	}

	c, err := New(initState, cfg.Name, append(base, opts...)...)
	if err != nil {
		_ = closeFn()
		return nil, noopClose, err
	}
	return c, closeFn, nil
}

func noopClose() error {
	return nil
}
