package flows

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// recipeEditFlow drives the edit menu reached from edit_recipe_<id>
// buttons. The recipe being edited is pinned in the draft at entry; every
// field edit in the session applies to that recipe. The menu state is
// revisitable: each successful field edit returns to it.
func recipeEditFlow(d Deps) *dialog.Flow {
	showMenu := func(ctx context.Context, ev models.Event, r models.Recipe) {
		send(ctx, ev, models.Reply{
			Text:     "Which part of the recipe would you like to edit?",
			Keyboard: editMenuKeyboard(r),
		})
	}

	// applyUpdate persists the draft's recipe. The store enforces
	// ownership a second time.
	applyUpdate := func(ctx context.Context, ev models.Event, sess *session.Session) (bool, error) {
		draft := sess.Draft.(*models.EditDraft)
		draft.Recipe.OwnerID = ev.ActorID
		ok, err := d.Records.UpdateRecipe(ctx, draft.Recipe)
		if err != nil {
			return false, fmt.Errorf("recipe update failed: %w", err)
		}
		return ok, nil
	}

	// editTextField builds the handler for a plain text field state.
	editTextField := func(assign func(*models.Recipe, string) bool, success string) dialog.HandlerFunc {
		return func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
			draft := sess.Draft.(*models.EditDraft)
			if !assign(&draft.Recipe, ev.Text) {
				sendText(ctx, ev, "Please enter a valid number.")
				return sess.Current, nil
			}
			ok, err := applyUpdate(ctx, ev, sess)
			if err != nil {
				return models.StateEnd, err
			}
			if !ok {
				sendText(ctx, ev, "Could not update the recipe. Please try again.")
				return models.StateEnd, nil
			}
			sendText(ctx, ev, success)
			showMenu(ctx, ev, draft.Recipe)
			return models.StateEditWaiting, nil
		}
	}

	removeMedia := func(ctx context.Context, ev models.Event, sess *session.Session, kind models.MediaKind) (models.StateType, error) {
		draft := sess.Draft.(*models.EditDraft)
		var ref string
		if kind == models.MediaPhoto {
			ref, draft.Recipe.PhotoRef = draft.Recipe.PhotoRef, ""
		} else {
			ref, draft.Recipe.VoiceRef = draft.Recipe.VoiceRef, ""
		}
		if ref != "" && d.Media != nil {
			if err := d.Media.Remove(kind, ref); err != nil {
				slog.Debug("stored media removal failed", "error", err, "kind", kind, "ref", ref)
			}
		}
		ok, err := applyUpdate(ctx, ev, sess)
		if err != nil {
			return models.StateEnd, err
		}
		if !ok {
			sendText(ctx, ev, "Could not update the recipe. Please try again.")
			return models.StateEnd, nil
		}
		if kind == models.MediaPhoto {
			sendText(ctx, ev, "Photo removed.")
		} else {
			sendText(ctx, ev, "Voice instruction removed.")
		}
		return models.StateEnd, nil
	}

	// handleSelection reacts to edit_<id>_<field> menu taps. It also runs
	// as a fallback so the menu keeps working from any field state.
	handleSelection := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		draft := sess.Draft.(*models.EditDraft)
		token, err := ParseEditField(ev.Payload)
		if err != nil || token.RecipeID != draft.RecipeID {
			sendText(ctx, ev, "Invalid option.")
			return models.StateEditWaiting, nil
		}

		switch token.Field {
		case editFieldCancel:
			sendText(ctx, ev, "Editing cancelled.")
			return models.StateEnd, nil
		case editFieldRemovePhoto:
			return removeMedia(ctx, ev, sess, models.MediaPhoto)
		case editFieldRemoveVoice:
			return removeMedia(ctx, ev, sess, models.MediaVoice)
		case editFieldTitle:
			sendText(ctx, ev, "Enter the new title:")
			return models.StateEditTitle, nil
		case editFieldIngredients:
			sendText(ctx, ev, "Enter the new ingredients (comma separated):")
			return models.StateEditIngredients, nil
		case editFieldCookingTime:
			sendText(ctx, ev, "Enter the new cooking time in minutes:")
			return models.StateEditCookingTime, nil
		case editFieldSkillLevel:
			send(ctx, ev, models.Reply{Text: "Choose the new difficulty level:", Keyboard: skillLevelKeyboard()})
			return models.StateEditSkillLevel, nil
		case editFieldCalories:
			sendText(ctx, ev, "Enter the new calories:")
			return models.StateEditCalories, nil
		case editFieldInstructions:
			sendText(ctx, ev, "Enter the new cooking instructions:")
			return models.StateEditInstructions, nil
		case editFieldPhoto:
			sendText(ctx, ev, "Send the new photo (or /skip to keep the current one):")
			return models.StateEditPhoto, nil
		case editFieldVoice:
			sendText(ctx, ev, "Send the new voice message (or /skip to keep the current one):")
			return models.StateEditVoice, nil
		default:
			sendText(ctx, ev, "Invalid option.")
			return models.StateEditWaiting, nil
		}
	}

	replaceMedia := func(kind models.MediaKind, success string) dialog.HandlerFunc {
		return func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
			draft := sess.Draft.(*models.EditDraft)
			var old string
			if kind == models.MediaPhoto {
				old, draft.Recipe.PhotoRef = draft.Recipe.PhotoRef, ev.Media.Ref
			} else {
				old, draft.Recipe.VoiceRef = draft.Recipe.VoiceRef, ev.Media.Ref
			}
			if old != "" && d.Media != nil {
				if err := d.Media.Remove(kind, old); err != nil {
					slog.Debug("stored media removal failed", "error", err, "kind", kind, "ref", old)
				}
			}
			ok, err := applyUpdate(ctx, ev, sess)
			if err != nil {
				return models.StateEnd, err
			}
			if !ok {
				sendText(ctx, ev, "Could not update the recipe. Please try again.")
				return models.StateEnd, nil
			}
			sendText(ctx, ev, success)
			showMenu(ctx, ev, draft.Recipe)
			return models.StateEditWaiting, nil
		}
	}

	skipMedia := func(message string) dialog.HandlerFunc {
		return func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
			sendText(ctx, ev, message)
			return models.StateEnd, nil
		}
	}

	return &dialog.Flow{
		Name:         "recipe_edit",
		Scope:        session.ScopePerUser,
		AllowReentry: true,
		EntryPoints: []dialog.Binding{
			dialog.OnCallback(tokenEditEntryPrefix, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				id, err := ParseEditEntry(ev.Payload)
				if err != nil {
					sendText(ctx, ev, "Invalid option.")
					return models.StateEnd, nil
				}
				recipe, err := d.Records.GetRecipe(ctx, id)
				if err != nil {
					return models.StateEnd, fmt.Errorf("recipe lookup failed: %w", err)
				}
				if recipe == nil {
					sendText(ctx, ev, "Recipe not found.")
					return models.StateEnd, nil
				}
				if recipe.OwnerID != ev.ActorID {
					sendText(ctx, ev, "You can only edit your own recipes.")
					return models.StateEnd, nil
				}
				draft := sess.Draft.(*models.EditDraft)
				draft.RecipeID = id
				draft.Recipe = *recipe
				showMenu(ctx, ev, *recipe)
				return models.StateEditWaiting, nil
			}),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateEditWaiting: {
				dialog.OnCallback(tokenEditFieldPrefix, handleSelection),
			},
			models.StateEditTitle: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					r.Title = text
					return true
				}, "Title updated.")),
			},
			models.StateEditIngredients: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					r.Ingredients = text
					return true
				}, "Ingredients updated.")),
			},
			models.StateEditCookingTime: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					minutes, err := strconv.Atoi(strings.TrimSpace(text))
					if err != nil || minutes <= 0 {
						return false
					}
					r.CookingTime = minutes
					return true
				}, "Cooking time updated.")),
			},
			models.StateEditSkillLevel: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					r.SkillLevel = text
					return true
				}, "Difficulty updated.")),
			},
			models.StateEditCalories: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					calories, err := strconv.Atoi(strings.TrimSpace(text))
					if err != nil || calories < 0 {
						return false
					}
					r.Calories = calories
					return true
				}, "Calories updated.")),
			},
			models.StateEditInstructions: {
				dialog.OnText(editTextField(func(r *models.Recipe, text string) bool {
					r.Instructions = text
					return true
				}, "Instructions updated.")),
			},
			models.StateEditPhoto: {
				dialog.OnMedia(models.MediaPhoto, replaceMedia(models.MediaPhoto, "Photo updated.")),
				dialog.OnCommand("skip", skipMedia("Photo edit cancelled.")),
			},
			models.StateEditVoice: {
				dialog.OnMedia(models.MediaVoice, replaceMedia(models.MediaVoice, "Voice instruction updated.")),
				dialog.OnCommand("skip", skipMedia("Voice edit cancelled.")),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
			dialog.OnCallback(tokenEditFieldPrefix, handleSelection),
		},
		NewDraft: func() any { return &models.EditDraft{} },
	}
}
