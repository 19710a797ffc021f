package flows

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/auth"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// BMI advice bands.
const (
	bmiUnderweightLimit = 18.5
	bmiBalancedLimit    = 25.0
)

// bmiFlow asks for height and weight, computes the index, stores it on the
// profile, and suggests a recipe focus for the band.
func bmiFlow(d Deps) *dialog.Flow {
	gate := func(h dialog.HandlerFunc) dialog.HandlerFunc {
		return auth.RequireRegistration(d.Records, h)
	}

	return &dialog.Flow{
		Name:  "bmi",
		Scope: session.ScopePerUser,
		EntryPoints: []dialog.Binding{
			dialog.OnCommand("calculate_bmi", gate(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
				sendText(ctx, ev, "Please enter your height in centimeters:")
				return models.StateBMIHeight, nil
			})),
		},
		States: map[models.StateType][]dialog.Binding{
			models.StateBMIHeight: {
				dialog.OnText(gate(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					height, err := strconv.ParseFloat(strings.TrimSpace(ev.Text), 64)
					if err != nil || height <= 0 {
						sendText(ctx, ev, "Please enter a valid number.")
						return models.StateBMIHeight, nil
					}
					sess.Draft.(*models.BMIDraft).HeightCm = height
					sendText(ctx, ev, "Please enter your weight in kilograms:")
					return models.StateBMIWeight, nil
				})),
			},
			models.StateBMIWeight: {
				dialog.OnText(gate(func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error) {
					weight, err := strconv.ParseFloat(strings.TrimSpace(ev.Text), 64)
					if err != nil || weight <= 0 {
						sendText(ctx, ev, "Please enter a valid number.")
						return models.StateBMIWeight, nil
					}
					heightM := sess.Draft.(*models.BMIDraft).HeightCm / 100
					bmi := weight / (heightM * heightM)

					if err := d.Records.SaveBMI(ctx, ev.ActorID, bmi); err != nil {
						sendText(ctx, ev, "Could not save your BMI. Please try again.")
						return models.StateEnd, nil
					}
					sendText(ctx, ev, fmt.Sprintf("Your BMI: %.1f\n\n%s", bmi, bmiAdvice(bmi)))
					return models.StateEnd, nil
				})),
			},
		},
		Fallbacks: []dialog.Binding{
			dialog.OnCommand("cancel", cancelConversation),
		},
		NewDraft: func() any { return &models.BMIDraft{} },
	}
}

func bmiAdvice(bmi float64) string {
	switch {
	case bmi < bmiUnderweightLimit:
		return "Suggestion: focus on protein-rich, high-calorie recipes."
	case bmi < bmiBalancedLimit:
		return "Suggestion: keep a balanced diet with a variety of recipes."
	default:
		return "Suggestion: focus on light, low-calorie recipes."
	}
}
