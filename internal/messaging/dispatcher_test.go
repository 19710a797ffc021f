package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// fakeService feeds canned events and records delivered replies.
type fakeService struct {
	events chan models.Event

	mu   sync.Mutex
	sent []models.Reply
}

func newFakeService() *fakeService {
	return &fakeService{events: make(chan models.Event, 10)}
}

func (f *fakeService) ValidateAndCanonicalizeRecipient(r string) (string, error) { return r, nil }

func (f *fakeService) SendReply(ctx context.Context, chatID string, r models.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	return nil
}

func (f *fakeService) Start(ctx context.Context) error { return nil }
func (f *fakeService) Stop() error                     { close(f.events); return nil }
func (f *fakeService) Events() <-chan models.Event     { return f.events }

func (f *fakeService) replies() []models.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Reply(nil), f.sent...)
}

func TestDispatcherDeliversRepliesThroughService(t *testing.T) {
	engine := dialog.NewEngine(session.NewMemoryStore())
	t.Cleanup(engine.Stop)

	err := engine.Register(&dialog.Flow{
		Name:  "ping",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("ping", func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				if err := ev.Sink.Send(ctx, models.Reply{Text: "pong"}); err != nil {
					return models.StateEnd, err
				}
				return models.StateEnd, nil
			}),
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	svc := newFakeService()
	d := NewDispatcher(engine, svc)
	d.Start(context.Background())

	svc.events <- models.Event{
		ChatID:  "15551234567",
		ActorID: "15551234567",
		Kind:    models.TriggerCommand,
		Command: "ping",
		Time:    time.Now().Unix(),
	}
	svc.Stop()
	d.Wait()

	replies := svc.replies()
	if len(replies) != 1 || replies[0].Text != "pong" {
		t.Errorf("replies = %+v", replies)
	}
}
