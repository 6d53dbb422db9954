// Package usersink forwards form activity events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-formsync/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs limits forwarding to the listed verbs. Empty forwards everything.
	Verbs []string
}

var _ activity.ActivityHook = Hook{}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Addressable() {
		return nil
	}
	if !h.accepts(normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := map[string]any{}
	for key, value := range normalized.Metadata {
		data[key] = value
	}
	for key, value := range map[string]string{
		"form_id":     normalized.FormID,
		"input_id":    normalized.InputID,
		"global_key":  normalized.GlobalKey,
		"snapshot_id": normalized.SnapshotID,
	} {
		if value != "" {
			data[key] = value
		}
	}
	if len(data) == 0 {
		data = nil
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	})
}

func (h Hook) accepts(verb string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	for _, allowed := range h.Verbs {
		if strings.TrimSpace(allowed) == verb {
			return true
		}
	}
	return false
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
