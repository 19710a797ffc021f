package flows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// registrationFlow runs /start. Registered users get a welcome back with
// the main menu; new users are asked for a username.
func registrationFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "registration",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("start", func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				registered, err := d.Records.IsRegistered(ctx, ev.ActorID)
				if err != nil {
					return models.StateEnd, fmt.Errorf("registration check failed: %w", err)
				}
				if registered {
					send(ctx, ev, models.Reply{
						Text:     fmt.Sprintf("Welcome back, %s!\n\nPick an option from the menu below.", displayName(ev)),
						Keyboard: mainMenuKeyboard(),
					})
					return models.StateEnd, nil
				}
				draft := sess.Draft.(*models.RegistrationDraft)
				draft.ActorID = ev.ActorID
				draft.DisplayName = ev.DisplayName
				sendText(ctx, ev, "Welcome to the recipe manager!\n\nPlease enter a username:")
				return models.StateRegisterUsername, nil
			}),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateRegisterUsername: {
				dialog.OnText(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					draft := sess.Draft.(*models.RegistrationDraft)
					err := d.Records.RegisterUser(ctx, models.UserProfile{
						ActorID:     draft.ActorID,
						Username:    ev.Text,
						DisplayName: draft.DisplayName,
					})
					if err != nil {
						slog.Error("registration failed", "error", err, "actor", draft.ActorID)
						sendText(ctx, ev, "Registration failed. Please try again.")
						return models.StateEnd, nil
					}
					send(ctx, ev, models.Reply{
						Text:     fmt.Sprintf("Registration complete!\nWelcome, %s!\n\nPick an option from the menu below.", displayName(ev)),
						Keyboard: mainMenuKeyboard(),
					})
					return models.StateEnd, nil
				}),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
		},
		NewDraft: func() any { return &models.RegistrationDraft{} },
	}
}

func displayName(ev models.Event) string {
	if ev.DisplayName != "" {
		return ev.DisplayName
	}
	return ev.ActorID
}
