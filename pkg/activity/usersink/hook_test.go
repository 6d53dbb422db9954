package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-formsync/pkg/activity"
	"github.com/goliatone/go-formsync/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func TestHookNotifyMapsFormEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildGlobalUpdatedEvent(activity.FormEventInput{
		GlobalKey: "currency",
		FormID:    "checkout",
		NewValue:  "USD",
	})
	event.ActorID = actorID.String()
	event.TenantID = tenantID.String()
	event.UserID = "not-a-uuid"
	event.Channel = "forms"
	event.OccurredAt = now

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected invalid user id to map to uuid.Nil, got %s", record.UserID)
	}
	if record.Verb != activity.VerbGlobalUpdated || record.ObjectType != activity.ObjectTypeGlobal || record.ObjectID != "currency" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["form_id"] != "checkout" || record.Data["global_key"] != "currency" || record.Data["new_value"] != "USD" {
		t.Fatalf("expected metadata passthrough, got %v", record.Data)
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbStateSaved}}

	_ = hook.Notify(context.Background(), activity.BuildConfigSavedEvent(activity.FormEventInput{FormID: "f1"}))
	_ = hook.Notify(context.Background(), activity.BuildStateSavedEvent(activity.FormEventInput{FormID: "f1"}))

	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbStateSaved {
		t.Fatalf("expected only state saves forwarded, got %+v", sink.records)
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}
