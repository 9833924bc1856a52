package lightstate

import "context"

// Update is the argument of SetState: a Patch or an UpdateFunc.
type Update interface {
	isUpdate()
}

// Message is the argument of Dispatch: a Patch or an Action.
type Message interface {
	isMessage()
}

// Patch is a partial state merged shallowly onto the current state.
type Patch map[string]any

func (Patch) isUpdate()  {}
func (Patch) isMessage() {}

// UpdateFunc computes a patch from the state read when SetState was called.
// It runs on the caller's goroutine and may block.
type UpdateFunc func(ctx context.Context, snapshot State) (Patch, error)

func (UpdateFunc) isUpdate() {}

// Dispatcher is the signature of Container.Dispatch, handed to actions so they
// can dispatch other messages themselves.
type Dispatcher func(ctx context.Context, msg Message, onDone ...Callback[State]) (State, error)

// Action produces the next message from the current state. Returning an
// Action continues the chain, a Patch commits it, and nil commits the current
// state unchanged.
type Action func(ctx context.Context, dispatch Dispatcher, current State) (Message, error)

func (Action) isMessage() {}
