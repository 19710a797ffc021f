package flows

import (
	"fmt"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

const ingredientPreviewLimit = 100

// mainMenuKeyboard lists the commands a registered user reaches for most.
func mainMenuKeyboard() models.Keyboard {
	return models.Keyboard{
		{{Label: "Add recipe", Command: "add_recipe"}, {Label: "My recipes", Command: "my_recipes"}},
		{{Label: "Search recipes", Command: "search_recipes"}, {Label: "Calculate BMI", Command: "calculate_bmi"}},
		{{Label: "My favorites", Command: "my_favorites"}, {Label: "Profile", Command: "profile"}},
		{{Label: "Help", Command: "help"}},
	}
}

func skillLevelKeyboard() models.Keyboard {
	return models.Keyboard{
		{{Label: "Beginner"}, {Label: "Intermediate"}, {Label: "Advanced"}},
	}
}

func yesNoKeyboard() models.Keyboard {
	return models.Keyboard{
		{{Label: "Yes"}, {Label: "No"}},
	}
}

// recipePreview is the short listing form with a view button.
func recipePreview(r models.Recipe) models.Reply {
	ingredients := r.Ingredients
	if len(ingredients) > ingredientPreviewLimit {
		ingredients = ingredients[:ingredientPreviewLimit] + "..."
	}
	text := fmt.Sprintf(
		"%s\nCooking time: %d minutes\nDifficulty: %s\nCalories: %d\nIngredients: %s",
		r.Title, r.CookingTime, r.SkillLevel, r.Calories, ingredients,
	)
	return models.Reply{
		Text: text,
		Keyboard: models.Keyboard{
			{{Label: "View full recipe", Callback: EncodeView(r.ID)}},
		},
	}
}

// recipeDetails is the full recipe view.
func recipeDetails(r models.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", r.Title)
	fmt.Fprintf(&b, "Ingredients:\n%s\n\n", r.Ingredients)
	fmt.Fprintf(&b, "Instructions:\n%s\n\n", r.Instructions)
	fmt.Fprintf(&b, "Cooking time: %d minutes\n", r.CookingTime)
	fmt.Fprintf(&b, "Difficulty: %s\n", r.SkillLevel)
	fmt.Fprintf(&b, "Calories: %d\n", r.Calories)
	fmt.Fprintf(&b, "Added: %s", r.CreatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// editMenuKeyboard offers the editable fields. Media rows adapt to whether
// the recipe currently has a photo or voice instruction.
func editMenuKeyboard(r models.Recipe) models.Keyboard {
	kb := models.Keyboard{
		{
			{Label: "Title", Callback: EncodeEditField(r.ID, editFieldTitle)},
			{Label: "Ingredients", Callback: EncodeEditField(r.ID, editFieldIngredients)},
		},
		{
			{Label: "Cooking time", Callback: EncodeEditField(r.ID, editFieldCookingTime)},
			{Label: "Difficulty", Callback: EncodeEditField(r.ID, editFieldSkillLevel)},
		},
		{
			{Label: "Calories", Callback: EncodeEditField(r.ID, editFieldCalories)},
			{Label: "Instructions", Callback: EncodeEditField(r.ID, editFieldInstructions)},
		},
	}
	if r.PhotoRef != "" {
		kb = append(kb, []models.Button{
			{Label: "Replace photo", Callback: EncodeEditField(r.ID, editFieldPhoto)},
			{Label: "Remove photo", Callback: EncodeEditField(r.ID, editFieldRemovePhoto)},
		})
	} else {
		kb = append(kb, []models.Button{
			{Label: "Add photo", Callback: EncodeEditField(r.ID, editFieldPhoto)},
		})
	}
	if r.VoiceRef != "" {
		kb = append(kb, []models.Button{
			{Label: "Replace voice", Callback: EncodeEditField(r.ID, editFieldVoice)},
			{Label: "Remove voice", Callback: EncodeEditField(r.ID, editFieldRemoveVoice)},
		})
	} else {
		kb = append(kb, []models.Button{
			{Label: "Add voice", Callback: EncodeEditField(r.ID, editFieldVoice)},
		})
	}
	kb = append(kb, []models.Button{
		{Label: "Cancel", Callback: EncodeEditField(r.ID, editFieldCancel)},
	})
	return kb
}
