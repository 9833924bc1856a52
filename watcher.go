package lightstate

import (
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-lightstate/pkg/clock"
)

// DefaultGraceDelay is how long a Watcher waits before delivering a
// projection error.
const DefaultGraceDelay = 200 * time.Millisecond

// Source is the read and subscribe side of a Container.
type Source interface {
	GetState() State
	Name() string
	Subscribe(cb Callback[State]) Handle
	Unsubscribe(handle Handle)
}

type watchDefaults struct {
	logger     Logger
	clock      clock.Clock
	graceDelay time.Duration
}

type defaultsSource interface {
	watchDefaults() watchDefaults
}

// WatchOption configures a Watcher.
type WatchOption[P any] func(*watchConfig[P])

type watchConfig[P any] struct {
	notify     func(P)
	onError    func(error)
	graceDelay time.Duration
	clock      clock.Clock
	logger     Logger
}

// WithNotify sets the callback invoked with every projection that differs
// from the last one delivered.
func WithNotify[P any](fn func(P)) WatchOption[P] {
	return func(cfg *watchConfig[P]) {
		cfg.notify = fn
	}
}

// WithErrorHandler sets the callback receiving deferred projection errors.
// The error is always a *ProjectionError.
func WithErrorHandler[P any](fn func(error)) WatchOption[P] {
	return func(cfg *watchConfig[P]) {
		cfg.onError = fn
	}
}

func WithGraceDelay[P any](d time.Duration) WatchOption[P] {
	return func(cfg *watchConfig[P]) {
		cfg.graceDelay = d
	}
}

func WithWatchClock[P any](c clock.Clock) WatchOption[P] {
	return func(cfg *watchConfig[P]) {
		cfg.clock = c
	}
}

func WithWatchLogger[P any](logger Logger) WatchOption[P] {
	return func(cfg *watchConfig[P]) {
		cfg.logger = logger
	}
}

// Watcher keeps a projection of a container's state up to date and tells its
// consumer when the projection changes.
//
// A write whose projection is shallow-equal to the last delivered one is
// suppressed. When the selector fails the watcher stops delivering and, after
// the grace delay, hands a *ProjectionError to the error handler, unless it
// was deactivated or activated again in the meantime.
type Watcher[P any] struct {
	source   Source
	selector Selector[P]
	cfg      watchConfig[P]

	mu      sync.Mutex
	value   P
	mounted bool
	failed  bool
	handle  Handle
	gen     uint64
	timer   clock.Timer
}

// NewWatcher builds an inactive watcher. Call Activate to start it.
func NewWatcher[P any](source Source, selector Selector[P], opts ...WatchOption[P]) *Watcher[P] {
	cfg := watchConfig[P]{}
	if ds, ok := source.(defaultsSource); ok {
		defaults := ds.watchDefaults()
		cfg.logger = defaults.logger
		cfg.clock = defaults.clock
		cfg.graceDelay = defaults.graceDelay
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.clock == nil {
		cfg.clock = clock.Real()
	}
	if cfg.graceDelay <= 0 {
		cfg.graceDelay = DefaultGraceDelay
	}
	if cfg.logger == nil {
		cfg.logger = resolveLogger(nil, nil)
	}

	w := &Watcher[P]{source: source, selector: selector, cfg: cfg}
	if w.cfg.onError == nil {
		w.cfg.onError = w.logError
	}
	return w
}

// Activate computes the initial projection and subscribes to the source.
// Calling it on an active watcher returns the current value.
//
// A selector failure here is handled like one during recomputation: the
// watcher stays mounted but inactive, Failed reports true and the error is
// delivered after the grace delay. Only invalid wiring is returned as an
// error.
func (w *Watcher[P]) Activate() (P, error) {
	var zero P
	if w.source == nil {
		return zero, badInput("watcher source is nil")
	}
	if w.selector == nil {
		return zero, badInput("watcher selector is nil")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mounted {
		return w.value, nil
	}

	w.gen++
	w.failed = false
	w.stopTimerLocked()

	value, err := safeSelect(w.selector, w.source.GetState(), w.source.Name())
	w.handle = w.source.Subscribe(w.onChange)
	w.mounted = true
	if err != nil {
		w.value = zero
		w.failLocked(err)
		return zero, nil
	}
	w.value = value
	return value, nil
}

// Deactivate unsubscribes and cancels a pending error delivery. It is safe to
// call more than once.
func (w *Watcher[P]) Deactivate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.mounted {
		return
	}
	w.source.Unsubscribe(w.handle)
	w.handle = ""
	w.mounted = false
	w.gen++
	w.stopTimerLocked()
}

// Value returns the last delivered projection.
func (w *Watcher[P]) Value() P {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Active reports whether the watcher is mounted and still delivering.
func (w *Watcher[P]) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted && !w.failed
}

// Failed reports whether a projection error stopped delivery.
func (w *Watcher[P]) Failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

func (w *Watcher[P]) onChange(State) {
	w.mu.Lock()
	if !w.mounted || w.failed {
		w.mu.Unlock()
		return
	}
	gen := w.gen
	w.mu.Unlock()

	// The selector runs unlocked and against the latest state, so a write
	// made by an earlier subscriber is already visible.
	next, err := safeSelect(w.selector, w.source.GetState(), w.source.Name())

	w.mu.Lock()
	if !w.mounted || w.failed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.failLocked(err)
		w.mu.Unlock()
		return
	}
	if ShallowEqual(w.value, next) {
		w.mu.Unlock()
		return
	}
	w.value = next
	notify := w.cfg.notify
	w.mu.Unlock()

	if notify != nil {
		notify(next)
	}
}

func (w *Watcher[P]) failLocked(err error) {
	w.failed = true
	w.gen++
	gen := w.gen
	projErr := newProjectionError(w.source.Name(), err)
	w.stopTimerLocked()
	w.timer = w.cfg.clock.AfterFunc(w.cfg.graceDelay, func() {
		w.deliver(gen, projErr)
	})
}

func (w *Watcher[P]) deliver(gen uint64, err *ProjectionError) {
	w.mu.Lock()
	if !w.mounted || !w.failed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	handler := w.cfg.onError
	w.mu.Unlock()

	handler(err)
}

func (w *Watcher[P]) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher[P]) logError(err error) {
	var projErr *ProjectionError
	if !errors.As(err, &projErr) {
		w.cfg.logger.Error("lightstate: projection failed", "container", w.source.Name(), "error", err)
		return
	}
	envelope := projErr.Envelope()
	w.cfg.logger.Error("lightstate: projection failed",
		"container", projErr.Container,
		"text_code", envelope.TextCode,
		"category", envelope.Category,
		"error", err,
	)
}
