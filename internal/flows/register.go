package flows

import (
	"fmt"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
)

// RegisterAll registers every RecipeDesk flow with the engine.
//
// Order matters: entry points are tried in registration order, so the edit
// flow comes first to claim its callback tokens before the generic ones.
func RegisterAll(e *dialog.Engine, d Deps) error {
	all := []*dialog.Flow{
		recipeEditFlow(d),
		myRecipesFlow(d),
		viewRecipeFlow(d),
		registrationFlow(d),
		banFlow(d),
		profileFlow(d),
		favoritesFlow(d),
		helpFlow(d),
		recipeCreateFlow(d),
		bmiFlow(d),
		searchFlow(d),
	}
	for _, f := range all {
		if err := e.Register(f); err != nil {
			return fmt.Errorf("failed to register flow %s: %w", f.Name, err)
		}
	}
	return nil
}
