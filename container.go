package lightstate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-lightstate/pkg/activity"
	"github.com/goliatone/go-lightstate/pkg/clock"
)

// Container owns a Store holding the current State plus the initial snapshot
// used by ResetState. Every write goes through SetState or Dispatch and is
// optionally persisted through a Storage.
//
// Writes are not serialized against each other. A function-form SetState
// merges its result onto the state read when it was called, so two
// overlapping calls started from the same snapshot clobber each other and the
// last one to commit wins.
type Container struct {
	name        string
	initState   State
	store       *Store[State]
	persistence persistence
	logger      Logger
	emitter     *activity.Emitter
	clock       clock.Clock
	graceDelay  time.Duration

	boomeranging atomic.Bool
}

// New builds a container holding a deep copy of initState. When a storage
// name is configured the initial value is loaded from storage, falling back
// to initState on a miss. A load error fails construction and is returned as
// is.
func New(initState State, name string, opts ...Option) (*Container, error) {
	cfg := applyOptions(opts)

	c := &Container{
		name:        name,
		initState:   Clone(initState),
		persistence: cfg.persistence,
		logger:      resolveLogger(cfg.loggerProvider, cfg.logger),
		emitter:     activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
		clock:       cfg.clock,
		graceDelay:  cfg.graceDelay,
	}
	if c.initState == nil {
		c.initState = State{}
	}

	current := Clone(c.initState)
	loaded, ok, err := c.persistence.load(cfg.ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		current = loaded
		c.logger.Debug("lightstate: loaded state from storage", "container", name, "storage_name", c.persistence.name)
	}
	c.store = NewStore(current)
	return c, nil
}

// Name returns the container name handed to selectors.
func (c *Container) Name() string {
	return c.name
}

// StorageName returns the persistence key, empty when persistence is off.
func (c *Container) StorageName() string {
	if !c.persistence.enabled() {
		return ""
	}
	return c.persistence.name
}

// InitState returns a copy of the initial snapshot.
func (c *Container) InitState() State {
	return Clone(c.initState)
}

// GetState returns the current state. The map is shared with the store and
// must be treated as read-only.
func (c *Container) GetState() State {
	return c.store.Get()
}

// Get is an alias of GetState.
func (c *Container) Get() State {
	return c.GetState()
}

// Value returns a single top-level field of the current state.
func (c *Container) Value(key string) any {
	return c.store.Get()[key]
}

// SetState applies update and commits the merged result. A Patch merges onto
// the current state. An UpdateFunc receives the state read at call time and
// its patch is merged onto that same snapshot. A nil Patch is an empty patch:
// the current state is committed again.
//
// After the commit the onDone callbacks run, then the state is persisted when
// storage is configured. A storage error is returned unwrapped and the new
// state stays committed.
func (c *Container) SetState(ctx context.Context, update Update, onDone ...Callback[State]) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch u := update.(type) {
	case Patch:
		next := Merge(c.store.Get(), u)
		return next, c.commit(ctx, activity.VerbStateCommitted, next, sortedKeys(u), onDone)
	case UpdateFunc:
		if u == nil {
			return nil, badInput("nil update func")
		}
		snapshot := c.store.Get()
		patch, err := u(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		next := Merge(snapshot, patch)
		return next, c.commit(ctx, activity.VerbStateCommitted, next, sortedKeys(patch), onDone)
	default:
		return nil, badInput("update must be a Patch or an UpdateFunc")
	}
}

// Set is an alias of SetState.
func (c *Container) Set(ctx context.Context, update Update, onDone ...Callback[State]) (State, error) {
	return c.SetState(ctx, update, onDone...)
}

// Dispatch commits msg. A Patch goes straight to SetState. An Action runs
// with the current state; while it returns further actions they run in turn.
// The first result that is not a callable Action is committed through
// SetState: a Patch is merged, and nil commits the current state unchanged.
// Context cancellation is checked between steps.
func (c *Container) Dispatch(ctx context.Context, msg Message, onDone ...Callback[State]) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if msg == nil {
		return nil, badInput("nil message")
	}

	for steps := 0; ; steps++ {
		if steps > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		switch m := msg.(type) {
		case Patch:
			return c.SetState(ctx, m, onDone...)
		case Action:
			if m == nil {
				return nil, badInput("nil action")
			}
			next, err := m(ctx, c.Dispatch, c.store.Get())
			if err != nil {
				return nil, err
			}
			if next == nil || isNilAction(next) {
				c.logger.Debug("lightstate: action chain resolved to nil", "container", c.name, "steps", steps+1)
				next = Patch{}
			}
			msg = next
		default:
			return nil, badInput("message must be a Patch or an Action")
		}
	}
}

// ResetState commits a fresh copy of the initial state, replacing the current
// state entirely.
func (c *Container) ResetState(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	next := Clone(c.initState)
	return c.commit(ctx, activity.VerbStateReset, next, sortedKeys(next), nil)
}

// Subscribe registers cb for every committed write.
func (c *Container) Subscribe(cb Callback[State]) Handle {
	return c.store.Subscribe(cb)
}

// Unsubscribe removes the registration for handle.
func (c *Container) Unsubscribe(handle Handle) {
	c.store.Unsubscribe(handle)
}

// UnsubscribeAll drops every subscriber.
func (c *Container) UnsubscribeAll() {
	c.store.UnsubscribeAll()
}

// Subscribers reports the number of live subscriptions.
func (c *Container) Subscribers() int {
	return c.store.Len()
}

func (c *Container) commit(ctx context.Context, verb string, next State, keys []string, onDone []Callback[State]) error {
	c.store.Set(next)
	for _, cb := range onDone {
		if cb != nil {
			cb(next)
		}
	}
	if err := c.persistence.save(ctx, next); err != nil {
		c.logger.Error("lightstate: persist state failed", "container", c.name, "storage_name", c.persistence.name, "error", err)
		return err
	}
	c.emit(ctx, verb, keys)
	c.logger.Debug("lightstate: state committed", "container", c.name, "verb", verb, "keys", keys)
	return nil
}

func (c *Container) emit(ctx context.Context, verb string, keys []string) {
	if !c.emitter.Enabled() {
		return
	}
	input := activity.StateEventInput{
		Container:   c.name,
		StorageName: c.StorageName(),
		ChangedKeys: keys,
		OccurredAt:  c.clock.Now(),
	}
	var event activity.Event
	switch verb {
	case activity.VerbStateReset:
		event = activity.BuildStateResetEvent(input)
	case activity.VerbStateRestored:
		event = activity.BuildStateRestoredEvent(input)
	default:
		event = activity.BuildStateCommittedEvent(input)
	}
	if err := c.emitter.Emit(ctx, event); err != nil {
		c.logger.Error("lightstate: activity hooks failed", "container", c.name, "verb", verb, "error", err)
	}
}

func (c *Container) watchDefaults() watchDefaults {
	return watchDefaults{logger: c.logger, clock: c.clock, graceDelay: c.graceDelay}
}

func isNilAction(msg Message) bool {
	action, ok := msg.(Action)
	return ok && action == nil
}
