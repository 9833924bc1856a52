package lightstate

import (
	"context"
	"errors"
)

// Storage loads and saves container snapshots by key. Implementations live in
// pkg/storage; any type with these two methods works.
type Storage interface {
	Load(ctx context.Context, key string) (State, bool, error)
	Save(ctx context.Context, key string, snapshot State) error
}

// LoadFunc is the function form of Storage.Load. Returning ErrStorageNotFound
// or a nil state is treated as a miss.
type LoadFunc func(ctx context.Context, key string) (State, error)

// SaveFunc is the function form of Storage.Save.
type SaveFunc func(ctx context.Context, key string, snapshot State) error

// StorageFuncs adapts a pair of functions to Storage. A nil function is a
// no-op.
type StorageFuncs struct {
	LoadFn LoadFunc
	SaveFn SaveFunc
}

func (s StorageFuncs) Load(ctx context.Context, key string) (State, bool, error) {
	if s.LoadFn == nil {
		return nil, false, nil
	}
	state, err := s.LoadFn(ctx, key)
	if err != nil {
		if errors.Is(err, ErrStorageNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if state == nil {
		return nil, false, nil
	}
	return state, true, nil
}

func (s StorageFuncs) Save(ctx context.Context, key string, snapshot State) error {
	if s.SaveFn == nil {
		return nil
	}
	return s.SaveFn(ctx, key, snapshot)
}

type persistence struct {
	name    string
	storage Storage
}

func (p persistence) enabled() bool {
	return p.name != "" && p.storage != nil
}

func (p persistence) load(ctx context.Context) (State, bool, error) {
	if !p.enabled() {
		return nil, false, nil
	}
	return p.storage.Load(ctx, p.name)
}

func (p persistence) save(ctx context.Context, snapshot State) error {
	if !p.enabled() {
		return nil
	}
	return p.storage.Save(ctx, p.name, snapshot)
}
