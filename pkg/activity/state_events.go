package activity

import (
	"strings"
	"time"
)

const (
	VerbStateCommitted = "state.committed"
	VerbStateReset     = "state.reset"
	VerbStateRestored  = "state.restored"

	// ObjectTypeContainer is the object type of every state event; the object
	// id is the container name.
	ObjectTypeContainer = "lightstate.container"
)

// StateEventInput describes one committed write on a container.
type StateEventInput struct {
	ActorID     string
	UserID      string
	TenantID    string
	Container   string
	StorageName string
	Channel     string
	// ChangedKeys lists the keys carried by the write. Resets list every key.
	ChangedKeys []string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// BuildStateCommittedEvent describes a SetState or Dispatch commit.
func BuildStateCommittedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateCommitted, input)
}

// BuildStateResetEvent describes a ResetState commit.
func BuildStateResetEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateReset, input)
}

// BuildStateRestoredEvent describes a boomerang restoring the previous state.
func BuildStateRestoredEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateRestored, input)
}

func buildStateEvent(verb string, input StateEventInput) Event {
	storageName := strings.TrimSpace(input.StorageName)
	objectID := strings.TrimSpace(input.Container)
	if objectID == "" {
		objectID = storageName
	}
	if objectID == "" {
		objectID = ObjectTypeContainer
	}

	return Event{
		Verb:        verb,
		ActorID:     strings.TrimSpace(input.ActorID),
		UserID:      strings.TrimSpace(input.UserID),
		TenantID:    strings.TrimSpace(input.TenantID),
		ObjectType:  ObjectTypeContainer,
		ObjectID:    objectID,
		Channel:     strings.TrimSpace(input.Channel),
		StorageName: storageName,
		Keys:        normalizeKeys(input.ChangedKeys),
		Metadata:    cloneMap(input.Metadata),
		OccurredAt:  input.OccurredAt,
	}
}
