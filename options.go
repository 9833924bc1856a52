package lightstate

import (
	"context"
	"time"

	"github.com/goliatone/go-lightstate/pkg/activity"
	"github.com/goliatone/go-lightstate/pkg/clock"
)

// Option configures a Container.
type Option func(*containerConfig)

type containerConfig struct {
	ctx            context.Context
	persistence    persistence
	logger         Logger
	loggerProvider LoggerProvider
	activityHooks  activity.Hooks
	activityConfig activity.Config
	clock          clock.Clock
	graceDelay     time.Duration
}

func applyOptions(opts []Option) containerConfig {
	cfg := containerConfig{
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	if cfg.clock == nil {
		cfg.clock = clock.Real()
	}
	if cfg.graceDelay <= 0 {
		cfg.graceDelay = DefaultGraceDelay
	}
	return cfg
}

// WithStorage persists the container under storageName. An empty name leaves
// persistence disabled.
func WithStorage(storageName string, storage Storage) Option {
	return func(cfg *containerConfig) {
		cfg.persistence = persistence{name: storageName, storage: storage}
	}
}

// WithStorageFuncs is WithStorage for a plain load/save function pair.
func WithStorageFuncs(storageName string, load LoadFunc, save SaveFunc) Option {
	return WithStorage(storageName, StorageFuncs{LoadFn: load, SaveFn: save})
}

// WithContext sets the context used to load the initial state from storage.
func WithContext(ctx context.Context) Option {
	return func(cfg *containerConfig) {
		cfg.ctx = ctx
	}
}

func WithLogger(logger Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(cfg *containerConfig) {
		cfg.loggerProvider = provider
	}
}

// WithClock replaces the clock used for delayed work: Boomerang restores and
// the grace delay of watchers created over this container.
func WithClock(c clock.Clock) Option {
	return func(cfg *containerConfig) {
		cfg.clock = c
	}
}

// WithDefaultGraceDelay sets the grace delay used by watchers created over
// this container unless they set their own.
func WithDefaultGraceDelay(d time.Duration) Option {
	return func(cfg *containerConfig) {
		cfg.graceDelay = d
	}
}

// WithActivityHooks attaches activity hooks notified on every commit.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *containerConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the activity emitter defaults.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *containerConfig) {
		cfg.activityConfig = activityCfg
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
