package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-lightstate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Identity is the actor attached to a state record when the event itself
// carries none. Containers do not know who wrote to them, so the caller
// usually resolves it from the request context.
type Identity struct {
	ActorID  uuid.UUID
	UserID   uuid.UUID
	TenantID uuid.UUID
}

// Hook forwards container state events to a go-users ActivitySink.
type Hook struct {
	Sink     usertypes.ActivitySink
	Identity func(ctx context.Context) Identity
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       stateData(normalized),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if h.Identity != nil {
		identity := h.Identity(ctx)
		if record.ActorID == uuid.Nil {
			record.ActorID = identity.ActorID
		}
		if record.UserID == uuid.Nil {
			record.UserID = identity.UserID
		}
		if record.TenantID == uuid.Nil {
			record.TenantID = identity.TenantID
		}
	}

	return h.Sink.Log(ctx, record)
}

// stateData keeps the write summary but never the state values themselves.
func stateData(event activity.Event) map[string]any {
	data := map[string]any{"container": event.ObjectID}
	if len(event.Keys) > 0 {
		data["keys"] = append([]string{}, event.Keys...)
	}
	if event.StorageName != "" {
		data["storage_name"] = event.StorageName
	}
	return data
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
