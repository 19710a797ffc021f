// Package models defines flow state types shared across modules to avoid
// circular imports.
package models

// StateType identifies a state within a conversation flow. State names are
// only unique within their owning flow.
type StateType string

// StateEnd is the terminal marker: a handler returning it ends the session.
const StateEnd StateType = "END"

// State constants for the registration flow.
const (
	StateRegisterUsername StateType = "REGISTER_USERNAME"
)

// State constants for the recipe creation flow.
const (
	StateRecipeTitle        StateType = "RECIPE_TITLE"
	StateRecipeIngredients  StateType = "RECIPE_INGREDIENTS"
	StateRecipeCookingTime  StateType = "RECIPE_COOKING_TIME"
	StateRecipeSkillLevel   StateType = "RECIPE_SKILL_LEVEL"
	StateRecipeCalories     StateType = "RECIPE_CALORIES"
	StateRecipeInstructions StateType = "RECIPE_INSTRUCTIONS"
	StateRecipeVoiceChoice  StateType = "RECIPE_VOICE_CHOICE"
	StateRecipeVoiceRecord  StateType = "RECIPE_VOICE_RECORD"
	StateRecipePhoto        StateType = "RECIPE_PHOTO"
)

// State constants for the recipe edit flow. EDIT_WAITING is the revisitable
// menu state; field states return to it after a successful edit.
const (
	StateEditWaiting      StateType = "EDIT_WAITING"
	StateEditTitle        StateType = "EDIT_TITLE"
	StateEditIngredients  StateType = "EDIT_INGREDIENTS"
	StateEditCookingTime  StateType = "EDIT_COOKING_TIME"
	StateEditSkillLevel   StateType = "EDIT_SKILL_LEVEL"
	StateEditCalories     StateType = "EDIT_CALORIES"
	StateEditInstructions StateType = "EDIT_INSTRUCTIONS"
	StateEditPhoto        StateType = "EDIT_PHOTO"
	StateEditVoice        StateType = "EDIT_VOICE"
)

// State constants for the BMI flow.
const (
	StateBMIHeight StateType = "BMI_HEIGHT"
	StateBMIWeight StateType = "BMI_WEIGHT"
)

// State constants for the search flow.
const (
	StateSearchQuery StateType = "SEARCH_QUERY"
)

// State constants for the ban flow.
const (
	StateBanTarget StateType = "BAN_TARGET"
	StateBanReason StateType = "BAN_REASON"
)
