package lightstate

import (
	"context"
	"time"

	"github.com/goliatone/go-lightstate/pkg/activity"
)

// Boomerang applies patch now and, after d, restores the full state captured
// just before the patch. While a boomerang is pending further calls are
// ignored and report false. A nil patch is an empty patch. A storage error
// from applying patch is returned alongside true.
//
// The restore replaces the state verbatim, discarding any write made in the
// meantime. It runs on the container clock with a context detached from ctx's
// cancellation; a failure to persist the restored state is logged.
func (c *Container) Boomerang(ctx context.Context, patch Patch, d time.Duration) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.boomeranging.CompareAndSwap(false, true) {
		return false, nil
	}

	previous := c.store.Get()
	// A persistence error still leaves the patch committed, so the restore
	// is scheduled either way.
	_, err := c.SetState(ctx, patch)

	restoreCtx := context.WithoutCancel(ctx)
	c.clock.AfterFunc(d, func() {
		defer c.boomeranging.Store(false)
		if err := c.commit(restoreCtx, activity.VerbStateRestored, previous, sortedKeys(previous), nil); err != nil {
			c.logger.Error("lightstate: boomerang restore failed", "container", c.name, "error", err)
			return
		}
		c.logger.Debug("lightstate: boomerang restored", "container", c.name, "after", d)
	})
	return true, err
}

// Boomeranging reports whether a boomerang restore is pending.
func (c *Container) Boomeranging() bool {
	return c.boomeranging.Load()
}
