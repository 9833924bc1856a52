// Package teabind feeds container changes into a bubbletea program.
//
// A Subscription wraps a lightstate.Watcher. Start activates it and yields the
// initial projection as a ChangedMsg; after handling each ChangedMsg the model
// returns Listen to wait for the next one:
//
//	case teabind.ChangedMsg[View]:
//		m.view = msg.Value
//		return m, m.sub.Listen()
//
// Changes are coalesced: if the program falls behind only the latest
// projection is delivered.
package teabind

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goliatone/go-lightstate"
)

// ChangedMsg carries a new projection of the named container.
type ChangedMsg[P any] struct {
	Name  string
	Value P
}

// FailedMsg carries a deferred projection error.
type FailedMsg struct {
	Name string
	Err  error
}

// Subscription delivers watcher notifications as tea messages.
type Subscription[P any] struct {
	name    string
	watcher *lightstate.Watcher[P]

	mu       sync.Mutex
	changes  chan P
	failures chan error
	done     chan struct{}
	stopOnce sync.Once
}

// Subscribe prepares a subscription over source. Nothing is observed until
// the command returned by Start runs.
func Subscribe[P any](source lightstate.Source, selector lightstate.Selector[P], opts ...lightstate.WatchOption[P]) *Subscription[P] {
	s := &Subscription[P]{
		changes:  make(chan P, 1),
		failures: make(chan error, 1),
		done:     make(chan struct{}),
	}
	if source != nil {
		s.name = source.Name()
	}
	watchOpts := append([]lightstate.WatchOption[P]{
		lightstate.WithNotify(s.pushChange),
		lightstate.WithErrorHandler[P](s.pushFailure),
	}, opts...)
	s.watcher = lightstate.NewWatcher(source, selector, watchOpts...)
	return s
}

// Start activates the watcher and reports the initial projection.
func (s *Subscription[P]) Start() tea.Cmd {
	return func() tea.Msg {
		value, err := s.watcher.Activate()
		if err != nil {
			return FailedMsg{Name: s.name, Err: err}
		}
		if s.watcher.Failed() {
			return s.Listen()()
		}
		return ChangedMsg[P]{Name: s.name, Value: value}
	}
}

// Listen waits for the next change or failure. It returns nil once the
// subscription is stopped.
func (s *Subscription[P]) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case value := <-s.changes:
			return ChangedMsg[P]{Name: s.name, Value: value}
		case err := <-s.failures:
			return FailedMsg{Name: s.name, Err: err}
		case <-s.done:
			return nil
		}
	}
}

// Stop deactivates the watcher and releases pending Listen commands.
func (s *Subscription[P]) Stop() {
	s.stopOnce.Do(func() {
		s.watcher.Deactivate()
		close(s.done)
	})
}

// Value returns the last projection delivered by the watcher.
func (s *Subscription[P]) Value() P {
	return s.watcher.Value()
}

func (s *Subscription[P]) pushChange(value P) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.changes:
	default:
	}
	s.changes <- value
}

func (s *Subscription[P]) pushFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.failures:
	default:
	}
	s.failures <- err
}
