package lightstate

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-lightstate/pkg/activity"
)

func TestBoomerangRestoresPreviousState(t *testing.T) {
	c, fake := newWatchedContainer(t, State{"toast": "", "count": 1})
	ctx := context.Background()

	started, err := c.Boomerang(ctx, Patch{"toast": "saved"}, 2*time.Second)
	if err != nil || !started {
		t.Fatalf("expected boomerang to start, started=%v err=%v", started, err)
	}
	if c.Value("toast") != "saved" || !c.Boomeranging() {
		t.Fatalf("expected patch applied, got %v", c.GetState())
	}

	again, err := c.Boomerang(ctx, Patch{"toast": "other"}, time.Second)
	if err != nil || again {
		t.Fatalf("expected pending boomerang to ignore new calls, started=%v err=%v", again, err)
	}
	if c.Value("toast") != "saved" {
		t.Fatalf("expected ignored call to leave state alone")
	}

	fake.Advance(2 * time.Second)
	if c.Value("toast") != "" || c.Value("count") != 1 || c.Boomeranging() {
		t.Fatalf("expected state restored, got %v", c.GetState())
	}

	started, err = c.Boomerang(ctx, Patch{"toast": "again"}, time.Second)
	if err != nil || !started {
		t.Fatalf("expected boomerang to be available again")
	}
}

func TestBoomerangRestoreDiscardsInterimWrites(t *testing.T) {
	c, fake := newWatchedContainer(t, State{"count": 1})
	ctx := context.Background()
	if _, err := c.Boomerang(ctx, Patch{"flash": true}, time.Second); err != nil {
		t.Fatalf("boomerang: %v", err)
	}
	if _, err := c.SetState(ctx, Patch{"count": 9}); err != nil {
		t.Fatalf("set: %v", err)
	}

	fake.Advance(time.Second)
	got := c.GetState()
	if got["count"] != 1 {
		t.Fatalf("expected verbatim restore, got %v", got)
	}
	if _, ok := got["flash"]; ok {
		t.Fatalf("expected flash removed, got %v", got)
	}
}

func TestBoomerangEmitsRestoredEvent(t *testing.T) {
	capture := &activity.CaptureHook{}
	c, fake := newWatchedContainer(t, State{})
	c.emitter = activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})

	if _, err := c.Boomerang(context.Background(), Patch{"a": 1}, time.Second); err != nil {
		t.Fatalf("boomerang: %v", err)
	}
	fake.Advance(time.Second)

	if verbs := capture.Verbs(); len(verbs) != 2 || verbs[1] != activity.VerbStateRestored {
		t.Fatalf("expected commit then restore events, got %v", verbs)
	}
}

func TestBoomerangNilPatchIsEmpty(t *testing.T) {
	c, fake := newWatchedContainer(t, State{"count": 1})
	commits := 0
	c.Subscribe(func(State) { commits++ })

	started, err := c.Boomerang(context.Background(), nil, time.Second)
	if err != nil || !started {
		t.Fatalf("expected boomerang to start, started=%v err=%v", started, err)
	}
	if c.Value("count") != 1 || len(c.GetState()) != 1 {
		t.Fatalf("expected state unchanged, got %v", c.GetState())
	}

	fake.Advance(time.Second)
	if commits != 2 || c.Boomeranging() {
		t.Fatalf("expected apply and restore commits, got %d pending=%v", commits, c.Boomeranging())
	}
}
