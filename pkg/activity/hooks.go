package activity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// Event is one committed write on a container, as seen by activity hooks.
// IDs are strings so call sites are not tied to a UUID type.
type Event struct {
	Verb        string
	ActorID     string
	UserID      string
	TenantID    string
	ObjectType  string
	ObjectID    string
	Channel     string
	StorageName string
	// Keys are the top-level state keys touched by the write, sorted.
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives normalized state events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a plain function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans a state event out to every hook.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and forwards it to each hook. Events without a verb
// or an object are dropped. Hook errors are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent returns a detached copy of event with trimmed identifiers,
// sorted and de-duplicated keys, and a timestamp.
func NormalizeEvent(event Event) Event {
	normalized := event
	for _, field := range []*string{
		&normalized.Verb,
		&normalized.ActorID,
		&normalized.UserID,
		&normalized.TenantID,
		&normalized.ObjectType,
		&normalized.ObjectID,
		&normalized.Channel,
		&normalized.StorageName,
	} {
		*field = strings.TrimSpace(*field)
	}
	normalized.Keys = normalizeKeys(event.Keys)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func (e Event) routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

func normalizeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	deduped := out[:0]
	for i, key := range out {
		if i == 0 || key != out[i-1] {
			deduped = append(deduped, key)
		}
	}
	if len(deduped) == 0 {
		return nil
	}
	return deduped
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
