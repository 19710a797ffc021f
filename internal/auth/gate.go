// Package auth provides access gates that wrap dialogue handlers.
//
// Gates run before the wrapped handler and refuse the event with a reply
// when the actor lacks the required standing. A refused event never reaches
// the wrapped handler and ends without creating a session.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
)

const (
	registrationRequiredText = "You need to register first. Send /start to create your account."
	adminRequiredText        = "This command is restricted to administrators."
)

// RequireRegistration refuses events from actors without an active
// registration. Banned users count as unregistered.
func RequireRegistration(records store.Store, h dialog.HandlerFunc) dialog.HandlerFunc {
	return func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		ok, err := records.IsRegistered(ctx, ev.ActorID)
		if err != nil {
			slog.Error("RequireRegistration lookup failed", "error", err, "actor", ev.ActorID)
			return models.StateEnd, fmt.Errorf("registration check failed: %w", err)
		}
		if !ok {
			slog.Debug("RequireRegistration refused event", "actor", ev.ActorID)
			if ev.Sink != nil {
				if err := ev.Sink.Send(ctx, models.Reply{Text: registrationRequiredText}); err != nil {
					slog.Error("RequireRegistration refusal reply failed", "error", err, "actor", ev.ActorID)
				}
			}
			return models.StateEnd, nil
		}
		return h(ctx, ev, sess)
	}
}

// AdminOnly refuses events from actors not on the admin allow-list.
func AdminOnly(records store.Store, h dialog.HandlerFunc) dialog.HandlerFunc {
	return func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		if !records.IsAdmin(ev.ActorID) {
			slog.Debug("AdminOnly refused event", "actor", ev.ActorID)
			if ev.Sink != nil {
				if err := ev.Sink.Send(ctx, models.Reply{Text: adminRequiredText}); err != nil {
					slog.Error("AdminOnly refusal reply failed", "error", err, "actor", ev.ActorID)
				}
			}
			return models.StateEnd, nil
		}
		return h(ctx, ev, sess)
	}
}
