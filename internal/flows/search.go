package flows

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/recipedesk/RecipeDesk/internal/auth"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// minSearchTermRunes is the shortest accepted search term, counted in
// runes so two-character non-ASCII terms work.
const minSearchTermRunes = 2

// searchFlow runs /search_recipes. The query state loops so the user can
// search repeatedly until /cancel.
func searchFlow(d Deps) *dialog.Flow {
	return &dialog.Flow{
		Name:  "search",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("search_recipes", auth.RequireRegistration(d.Records, func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				sendText(ctx, ev,
					"Search the recipes.\n\n"+
						"Enter a term to match against titles, ingredients, and instructions.")
				return models.StateSearchQuery, nil
			})),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateSearchQuery: {
				dialog.OnText(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					term := ev.Text
					if utf8.RuneCountInString(term) < minSearchTermRunes {
						sendText(ctx, ev, "Please enter at least 2 characters.")
						return models.StateSearchQuery, nil
					}

					sess.Draft.(*models.SearchDraft).LastTerm = term
					results, err := d.Records.SearchRecipes(ctx, term)
					if err != nil {
						return models.StateEnd, fmt.Errorf("recipe search failed: %w", err)
					}
					if len(results) == 0 {
						sendText(ctx, ev, "No results found.\nTry another term, or /cancel to exit.")
						return models.StateSearchQuery, nil
					}

					sendText(ctx, ev, fmt.Sprintf("%d results found:", len(results)))
					for _, r := range results {
						send(ctx, ev, recipePreview(r))
					}
					sendText(ctx, ev, "Search for another term, or /cancel to exit.")
					return models.StateSearchQuery, nil
				}),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
		},
		NewDraft: func() any { return &models.SearchDraft{} },
	}
}
