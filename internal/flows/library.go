package flows

import (
	"context"
	"fmt"

	"github.com/recipedesk/RecipeDesk/internal/auth"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// myRecipesFlow runs /my_recipes: a preview of each of the caller's
// recipes, newest first, each with a view button.
func myRecipesFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "my_recipes",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("my_recipes", auth.RequireRegistration(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				recipes, err := d.Records.ListRecipesByOwner(ctx, ev.ActorID)
				if err != nil {
					return models.StateEnd, fmt.Errorf("recipe listing failed: %w", err)
				}
				if len(recipes) == 0 {
					sendText(ctx, ev, "You have not added any recipes yet.")
					return models.StateEnd, nil
				}
				sendText(ctx, ev, "Your recipes:")
				for _, r := range recipes {
					send(ctx, ev, recipePreview(r))
				}
				return models.StateEnd, nil
			})),
		},
	}
}

// viewRecipeFlow reacts to view_recipe_<id> buttons with the full recipe,
// a favorite toggle, an edit button for the owner, and any stored media.
func viewRecipeFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "view_recipe",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCallback(tokenViewPrefix, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				id, err := ParseView(ev.Payload)
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

				favorite, err := d.Records.IsFavorite(ctx, ev.ActorID, id)
				if err != nil {
					return models.StateEnd, fmt.Errorf("favorite lookup failed: %w", err)
				}
				favoriteLabel := "Add to favorites"
				if favorite {
					favoriteLabel = "Remove from favorites"
				}

				kb := models.Keyboard{
					{{Label: favoriteLabel, Callback: EncodeFavorite(id)}},
				}
				if recipe.OwnerID == ev.ActorID {
					kb = append(kb, []models.Button{
						{Label: "Edit recipe", Callback: EncodeEditEntry(id)},
					})
				}
				send(ctx, ev, models.Reply{Text: recipeDetails(*recipe), Keyboard: kb})

				if recipe.PhotoRef != "" {
					send(ctx, ev, models.Reply{Media: &models.Media{Kind: models.MediaPhoto, Ref: recipe.PhotoRef}})
				}
				if recipe.VoiceRef != "" {
					send(ctx, ev, models.Reply{Media: &models.Media{Kind: models.MediaVoice, Ref: recipe.VoiceRef}})
				}
				return models.StateEnd, nil
			}),
		},
	}
}

// favoritesFlow covers the favorite_<id> toggle buttons and /my_favorites.
func favoritesFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "favorites",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCallback(tokenFavoritePrefix, auth.RequireRegistration(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				id, err := ParseFavorite(ev.Payload)
				if err != nil {
					sendText(ctx, ev, "Invalid option.")
					return models.StateEnd, nil
				}
				favorite, err := d.Records.IsFavorite(ctx, ev.ActorID, id)
				if err != nil {
					return models.StateEnd, fmt.Errorf("favorite lookup failed: %w", err)
				}
				if favorite {
					if err := d.Records.RemoveFavorite(ctx, ev.ActorID, id); err != nil {
						return models.StateEnd, fmt.Errorf("favorite removal failed: %w", err)
					}
					sendText(ctx, ev, "Removed from favorites.")
				} else {
					if err := d.Records.AddFavorite(ctx, ev.ActorID, id); err != nil {
						return models.StateEnd, fmt.Errorf("favorite addition failed: %w", err)
					}
					sendText(ctx, ev, "Added to favorites.")
				}
				return models.StateEnd, nil
			})),
			dialog.OnCommand("my_favorites", auth.RequireRegistration(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				favorites, err := d.Records.ListFavorites(ctx, ev.ActorID)
				if err != nil {
					return models.StateEnd, fmt.Errorf("favorite listing failed: %w", err)
				}
				if len(favorites) == 0 {
					sendText(ctx, ev, "You have not added any favorites yet.")
					return models.StateEnd, nil
				}
				sendText(ctx, ev, "Your favorite recipes:")
				for _, r := range favorites {
					send(ctx, ev, recipePreview(r))
				}
				return models.StateEnd, nil
			})),
		},
	}
}

// profileFlow runs /profile.
func profileFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "profile",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("profile", auth.RequireRegistration(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				profile, err := d.Records.GetProfile(ctx, ev.ActorID)
				if err != nil {
					return models.StateEnd, fmt.Errorf("profile lookup failed: %w", err)
				}
				if profile == nil {
					sendText(ctx, ev, "Could not load your profile.")
					return models.StateEnd, nil
				}
				status := "active"
				if !profile.Active {
					status = "inactive"
				}
				text := fmt.Sprintf(
					"Your profile:\n\nName: %s\nUsername: %s\nMember since: %s\nStatus: %s",
					profile.DisplayName, profile.Username, profile.JoinedAt.Format("2006-01-02"), status,
				)
				if profile.BMI > 0 {
					text += fmt.Sprintf("\nBMI: %.1f", profile.BMI)
				}
				sendText(ctx, ev, text)
				return models.StateEnd, nil
			})),
		},
	}
}

// helpFlow runs /help.
func helpFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "help",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("help", func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				send(ctx, ev, models.Reply{
					Text: "Recipe manager commands:\n\n" +
						"/start - register or show the menu\n" +
						"/add_recipe - add a new recipe\n" +
						"/my_recipes - list your recipes\n" +
						"/search_recipes - search all recipes\n" +
						"/my_favorites - list your favorites\n" +
						"/calculate_bmi - calculate your BMI\n" +
						"/profile - show your profile\n" +
						"/cancel - cancel the current operation",
					Keyboard: mainMenuKeyboard(),
				})
				return models.StateEnd, nil
			}),
		},
	}
}
