// Package flows defines the RecipeDesk conversations: registration, recipe
// creation and editing, BMI calculation, search, favorites, and the admin
// commands. Each flow is declared against the dialogue engine and keeps its
// multi-turn input in a typed draft.
package flows

import (
	"context"
	"log/slog"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/media"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
)

// Notifier delivers a reply to a chat outside the inbound event's
// conversation, e.g. telling a user they were banned.
type Notifier interface {
	SendReply(ctx context.Context, chatID string, r models.Reply) error
}

// Deps carries the services flow handlers use.
type Deps struct {
	Records store.Store
	Media   *media.Store
	Notify  Notifier
}

// send delivers a reply on the event's conversation. Delivery failures are
// logged, not propagated: the dialogue has already advanced.
func send(ctx context.Context, ev models.Event, r models.Reply) {
	if ev.Sink == nil {
		return
	}
	if err := ev.Sink.Send(ctx, r); err != nil {
		slog.Error("flows reply delivery failed", "error", err, "chat", ev.ChatID)
	}
}

func sendText(ctx context.Context, ev models.Event, text string) {
	send(ctx, ev, models.Reply{Text: text})
}

// cancelConversation is the shared /cancel fallback.
func cancelConversation(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
	sendText(ctx, ev, "Operation cancelled.")
	return models.StateEnd, dialog.ErrAbort
}
