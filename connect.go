package lightstate

import "sync"

// View renders a projection. Render is called once on Mount and again for
// every change the watcher delivers.
type View[P any] interface {
	Render(P)
}

// ViewFunc adapts a function to View.
type ViewFunc[P any] func(P)

func (fn ViewFunc[P]) Render(value P) {
	if fn != nil {
		fn(value)
	}
}

// Failer is implemented by views that want deferred projection errors.
type Failer interface {
	Fail(error)
}

// Binding ties a View to a container through a Watcher for the lifetime of a
// mounted component.
type Binding[P any] struct {
	watcher *Watcher[P]
	view    View[P]

	mu      sync.Mutex
	mounted bool
}

// Connect binds view to source through selector. Deferred projection errors go
// to view.Fail when the view implements Failer. opts are applied after the
// binding's own notify and error options and can replace them.
func Connect[P any](source Source, selector Selector[P], view View[P], opts ...WatchOption[P]) *Binding[P] {
	b := &Binding[P]{view: view}
	watchOpts := []WatchOption[P]{WithNotify(b.render)}
	if failer, ok := view.(Failer); ok {
		watchOpts = append(watchOpts, WithErrorHandler[P](failer.Fail))
	}
	watchOpts = append(watchOpts, opts...)
	b.watcher = NewWatcher(source, selector, watchOpts...)
	return b
}

// Mount activates the watcher and renders the initial projection. When the
// initial projection fails nothing is rendered and the error follows the
// deferred path.
func (b *Binding[P]) Mount() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mounted {
		return nil
	}
	value, err := b.watcher.Activate()
	if err != nil {
		return err
	}
	b.mounted = true
	if !b.watcher.Failed() {
		b.render(value)
	}
	return nil
}

// Unmount deactivates the watcher. A pending projection error is dropped.
func (b *Binding[P]) Unmount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mounted {
		return
	}
	b.watcher.Deactivate()
	b.mounted = false
}

// Watcher exposes the underlying watcher.
func (b *Binding[P]) Watcher() *Watcher[P] {
	return b.watcher
}

func (b *Binding[P]) render(value P) {
	if b.view != nil {
		b.view.Render(value)
	}
}

// Connector builds bindings for any view with a fixed source and selector,
// the way a higher-order component wraps many components with the same
// mapping.
type Connector[P any] struct {
	source   Source
	selector Selector[P]
	opts     []WatchOption[P]
}

// NewConnector returns a Connector over source and selector.
func NewConnector[P any](source Source, selector Selector[P], opts ...WatchOption[P]) Connector[P] {
	return Connector[P]{source: source, selector: selector, opts: append([]WatchOption[P]{}, opts...)}
}

// Bind connects view.
func (c Connector[P]) Bind(view View[P]) *Binding[P] {
	return Connect(c.source, c.selector, view, c.opts...)
}

// WithLight connects view to the full state of c.
func (c *Container) WithLight(view View[State]) *Binding[State] {
	return Connect[State](c, Identity, view)
}

// Light returns a connector with the identity selector.
func (c *Container) Light() Connector[State] {
	return NewConnector[State](c, Identity)
}
