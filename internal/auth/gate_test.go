package auth

import (
	"context"
	"testing"

	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
)

type captureSink struct {
	replies []models.Reply
}

func (c *captureSink) Send(ctx context.Context, r models.Reply) error {
	c.replies = append(c.replies, r)
	return nil
}

func TestRequireRegistration(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	if err := records.RegisterUser(ctx, models.UserProfile{ActorID: "42", Username: "alice"}); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	calls := 0
	gated := RequireRegistration(records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		calls++
		return "NEXT", nil
	})

	sink := &captureSink{}
	ev := models.Event{ChatID: "100", ActorID: "42", Kind: models.TriggerCommand, Command: "profile", Sink: sink}
	next, err := gated(ctx, ev, &session.Session{})
	if err != nil {
		t.Fatalf("gated handler failed: %v", err)
	}
	if next != "NEXT" || calls != 1 {
		t.Errorf("registered actor must pass through, next=%q calls=%d", next, calls)
	}
	if len(sink.replies) != 0 {
		t.Errorf("no refusal reply expected for registered actor, got %v", sink.replies)
	}

	// Unregistered actor is refused without invoking the handler.
	ev.ActorID = "999"
	next, err = gated(ctx, ev, &session.Session{})
	if err != nil {
		t.Fatalf("refusal must not error: %v", err)
	}
	if next != models.StateEnd {
		t.Errorf("refusal must end, got %q", next)
	}
	if calls != 1 {
		t.Errorf("wrapped handler must not run for unregistered actor, calls=%d", calls)
	}
	if len(sink.replies) != 1 {
		t.Fatalf("expected one refusal reply, got %d", len(sink.replies))
	}

	// Banned actors count as unregistered.
	if err := records.SetBanned(ctx, "42", "spam"); err != nil {
		t.Fatalf("SetBanned failed: %v", err)
	}
	ev.ActorID = "42"
	next, _ = gated(ctx, ev, &session.Session{})
	if next != models.StateEnd || calls != 1 {
		t.Errorf("banned actor must be refused, next=%q calls=%d", next, calls)
	}
}

func TestAdminOnly(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore(store.WithAdminIDs([]string{"1"}))

	calls := 0
	gated := AdminOnly(records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		calls++
		return "NEXT", nil
	})

	sink := &captureSink{}
	ev := models.Event{ChatID: "100", ActorID: "1", Kind: models.TriggerCommand, Command: "ban", Sink: sink}
	next, err := gated(ctx, ev, &session.Session{})
	if err != nil || next != "NEXT" || calls != 1 {
		t.Fatalf("admin must pass through, next=%q err=%v calls=%d", next, err, calls)
	}

	ev.ActorID = "42"
	next, err = gated(ctx, ev, &session.Session{})
	if err != nil {
		t.Fatalf("refusal must not error: %v", err)
	}
	if next != models.StateEnd || calls != 1 {
		t.Errorf("non-admin must be refused, next=%q calls=%d", next, calls)
	}
	if len(sink.replies) != 1 {
		t.Errorf("expected one refusal reply, got %d", len(sink.replies))
	}
}
