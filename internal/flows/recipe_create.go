package flows

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/auth"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// recipeCreateFlow collects a recipe field by field starting at /add_recipe
// and commits it once the photo step finishes or is skipped.
func recipeCreateFlow(d Deps) *dialog.Flow {
	gate := func(h dialog.HandlerFunc) dialog.HandlerFunc {
		return auth.RequireRegistration(d.Records, h)
	}

	receiveTitle := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).Title = ev.Text
		sendText(ctx, ev, "Please enter the ingredients (comma separated):")
		return models.StateRecipeIngredients, nil
	}

	receiveIngredients := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).Ingredients = ev.Text
		sendText(ctx, ev, "Enter the cooking time in minutes:")
		return models.StateRecipeCookingTime, nil
	}

	receiveCookingTime := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		minutes, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || minutes <= 0 {
			sendText(ctx, ev, "Please enter a valid number.")
			return models.StateRecipeCookingTime, nil
		}
		sess.Draft.(*models.RecipeDraft).CookingTime = minutes
		send(ctx, ev, models.Reply{Text: "Choose the difficulty level:", Keyboard: skillLevelKeyboard()})
		return models.StateRecipeSkillLevel, nil
	}

	receiveSkillLevel := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).SkillLevel = ev.Text
		sendText(ctx, ev, "Enter the approximate calories (numbers only):")
		return models.StateRecipeCalories, nil
	}

	receiveCalories := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		calories, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || calories < 0 {
			sendText(ctx, ev, "Please enter a valid number.")
			return models.StateRecipeCalories, nil
		}
		sess.Draft.(*models.RecipeDraft).Calories = calories
		sendText(ctx, ev, "Enter the cooking instructions:")
		return models.StateRecipeInstructions, nil
	}

	receiveInstructions := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).Instructions = ev.Text
		send(ctx, ev, models.Reply{Text: "Would you like to add a voice instruction?", Keyboard: yesNoKeyboard()})
		return models.StateRecipeVoiceChoice, nil
	}

	receiveVoiceChoice := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		switch strings.ToLower(strings.TrimSpace(ev.Text)) {
		case "no":
			sendText(ctx, ev, "Send a photo of the dish (or /skip):")
			return models.StateRecipePhoto, nil
		case "yes":
			sendText(ctx, ev, "Please send your voice message:")
			return models.StateRecipeVoiceRecord, nil
		default:
			send(ctx, ev, models.Reply{Text: "Please answer Yes or No.", Keyboard: yesNoKeyboard()})
			return models.StateRecipeVoiceChoice, nil
		}
	}

	receiveVoiceRecord := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).VoiceRef = ev.Media.Ref
		sendText(ctx, ev, "Send a photo of the dish (or /skip):")
		return models.StateRecipePhoto, nil
	}

	commit := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		draft := sess.Draft.(*models.RecipeDraft)
		id, err := d.Records.SaveRecipe(ctx, draft.Recipe(ev.ActorID))
		if err != nil {
			slog.Error("recipe commit failed", "error", err, "actor", ev.ActorID)
			sendText(ctx, ev, "Could not save the recipe. Please try again.")
			return models.StateEnd, nil
		}
		slog.Info("recipe saved", "id", id, "actor", ev.ActorID)
		sendText(ctx, ev, "Recipe saved successfully!")
		return models.StateEnd, nil
	}

	receivePhoto := func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
		sess.Draft.(*models.RecipeDraft).PhotoRef = ev.Media.Ref
		return commit(ctx, ev, sess)
	}

	return &dialog.Flow{
		Name:  "recipe_create",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("add_recipe", gate(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				sendText(ctx, ev, "Please enter the recipe title:")
				return models.StateRecipeTitle, nil
			})),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateRecipeTitle:        {dialog.OnText(gate(receiveTitle))},
			models.StateRecipeIngredients:  {dialog.OnText(gate(receiveIngredients))},
			models.StateRecipeCookingTime:  {dialog.OnText(gate(receiveCookingTime))},
			models.StateRecipeSkillLevel:   {dialog.OnText(gate(receiveSkillLevel))},
			models.StateRecipeCalories:     {dialog.OnText(gate(receiveCalories))},
			models.StateRecipeInstructions: {dialog.OnText(gate(receiveInstructions))},
			models.StateRecipeVoiceChoice:  {dialog.OnText(gate(receiveVoiceChoice))},
			models.StateRecipeVoiceRecord:  {dialog.OnMedia(models.MediaVoice, gate(receiveVoiceRecord))},
			models.StateRecipePhoto: {
				dialog.OnMedia(models.MediaPhoto, gate(receivePhoto)),
				dialog.OnCommand("skip", gate(commit)),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
		},
		NewDraft: func() any { return &models.RecipeDraft{} },
	}
}
