package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config selects and configures a storage backend.
type Config struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	Dir    string `koanf:"dir" mapstructure:"dir"`
	Format string `koanf:"format" mapstructure:"format"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

// Backend is a storage adapter that owns releasable resources.
type Backend interface {
	Load(ctx context.Context, key string) (map[string]any, bool, error)
	Save(ctx context.Context, key string, snapshot map[string]any) error
	Close() error
}

// Validate reports configuration errors for the selected driver.
func (c Config) Validate() error {
	switch normalizeDriver(c.Driver) {
	case DriverMemory:
		return nil
	case DriverFile:
		if strings.TrimSpace(c.Dir) == "" {
			return fmt.Errorf("storage: dir is required for the file driver")
		}
		if _, err := CodecFor(c.Format); err != nil {
			return err
		}
		return nil
	case DriverSQLite:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("storage: dsn is required for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// Open builds the backend described by cfg. An empty driver selects memory.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch normalizeDriver(cfg.Driver) {
	case DriverFile:
		codec, err := CodecFor(cfg.Format)
		if err != nil {
			return nil, err
		}
		return NewFileStorage(cfg.Dir, codec), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return NewMemoryStorage(), nil
	}
}

func normalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		return DriverMemory
	}
	return driver
}
