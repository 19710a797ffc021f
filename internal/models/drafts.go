// Package models defines the per-flow draft structures.
//
// A draft accumulates a user's multi-turn input inside a session until the
// terminal handler commits it. Each flow has its own typed draft, constructed
// once at entry and threaded through the state handlers by reference.
package models

// RegistrationDraft accumulates registration input.
type RegistrationDraft struct {
	ActorID     string `json:"actor_id"`
	DisplayName string `json:"display_name"`
}

// RecipeDraft accumulates a recipe submission field by field.
type RecipeDraft struct {
	Title        string `json:"title,omitempty"`
	Ingredients  string `json:"ingredients,omitempty"`
	CookingTime  int    `json:"cooking_time,omitempty"`
	SkillLevel   string `json:"skill_level,omitempty"`
	Calories     int    `json:"calories,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	VoiceRef     string `json:"voice_ref,omitempty"`
	PhotoRef     string `json:"photo_ref,omitempty"`
}

// Recipe converts the finished draft into a Recipe ready for commit.
func (d *RecipeDraft) Recipe(ownerID string) Recipe {
	return Recipe{
		Title:        d.Title,
		Ingredients:  d.Ingredients,
		CookingTime:  d.CookingTime,
		SkillLevel:   d.SkillLevel,
		Calories:     d.Calories,
		Instructions: d.Instructions,
		VoiceRef:     d.VoiceRef,
		PhotoRef:     d.PhotoRef,
		OwnerID:      ownerID,
	}
}

// EditDraft captures the recipe being edited. RecipeID is fixed at entry;
// every field edit in the session applies against it.
type EditDraft struct {
	RecipeID int64  `json:"recipe_id"`
	Recipe   Recipe `json:"recipe"`
}

// BMIDraft accumulates BMI input across the height and weight turns.
type BMIDraft struct {
	HeightCm float64 `json:"height_cm,omitempty"`
}

// BanDraft accumulates the ban target while the reason is collected.
type BanDraft struct {
	TargetID string `json:"target_id,omitempty"`
}

// SearchDraft tracks the repeated-search session.
type SearchDraft struct {
	LastTerm string `json:"last_term,omitempty"`
}
