package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/auth"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// banFlow runs /ban_user for admins. With the user id passed inline the ban
// is immediate; otherwise the flow collects the target and a reason. The
// banned user gets a best-effort notification.
func banFlow(d Deps) *dialog.Flow {
	applyBan := func(ctx context.Context, ev models.Event, targetID, reason string) (models.StateType, error) {
		err := d.Records.SetBanned(ctx, targetID, reason)
		if errors.Is(err, models.ErrNotFound) {
			sendText(ctx, ev, "User not found.")
			return models.StateEnd, nil
		}
		if err != nil {
			return models.StateEnd, fmt.Errorf("ban failed: %w", err)
		}

		if d.Notify != nil {
			notice := "Your account has been suspended."
			if reason != "" {
				notice = fmt.Sprintf("Your account has been suspended. Reason: %s", reason)
			}
			if err := d.Notify.SendReply(ctx, targetID, models.Reply{Text: notice}); err != nil {
				slog.Debug("ban notification delivery failed", "error", err, "target", targetID)
			}
		}

		slog.Info("user banned", "target", targetID, "admin", ev.ActorID)
		sendText(ctx, ev, "User banned.")
		return models.StateEnd, nil
	}

	return &dialog.Flow{
		Name:  "ban",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("ban_user", auth.AdminOnly(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				if len(ev.Args) > 0 {
					target := ev.Args[0]
					if !allDigits(target) {
						sendText(ctx, ev, "Please provide a numeric user id.")
						return models.StateEnd, nil
					}
					return applyBan(ctx, ev, target, strings.Join(ev.Args[1:], " "))
				}
				sendText(ctx, ev, "Enter the user id to ban:")
				return models.StateBanTarget, nil
			})),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateBanTarget: {
				dialog.OnText(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					if !allDigits(ev.Text) {
						sendText(ctx, ev, "Please provide a numeric user id.")
						return models.StateBanTarget, nil
					}
					sess.Draft.(*models.BanDraft).TargetID = ev.Text
					sendText(ctx, ev, "Enter the reason for the ban:")
					return models.StateBanReason, nil
				}),
			},
			models.StateBanReason: {
				dialog.OnText(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					target := sess.Draft.(*models.BanDraft).TargetID
					return applyBan(ctx, ev, target, ev.Text)
				}),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
		},
		NewDraft: func() any { return &models.BanDraft{} },
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
