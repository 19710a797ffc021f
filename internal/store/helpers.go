package store

import (
	"database/sql"
	"fmt"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

const recipeColumns = `id, title, ingredients, cooking_time, skill_level, calories, instructions, voice_ref, photo_ref, owner_id, created_at, updated_at`

// scanRecipe scans a Recipe from sql.Rows.
func scanRecipe(rows *sql.Rows) (models.Recipe, error) {
	var r models.Recipe
	var voiceRef, photoRef sql.NullString
	err := rows.Scan(
		&r.ID, &r.Title, &r.Ingredients, &r.CookingTime, &r.SkillLevel, &r.Calories,
		&r.Instructions, &voiceRef, &photoRef, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("scan recipe failed: %w", err)
	}
	r.VoiceRef = voiceRef.String
	r.PhotoRef = photoRef.String
	return r, nil
}

// scanRecipeRow scans a Recipe from a single sql.Row.
func scanRecipeRow(row *sql.Row) (models.Recipe, error) {
	var r models.Recipe
	var voiceRef, photoRef sql.NullString
	err := row.Scan(
		&r.ID, &r.Title, &r.Ingredients, &r.CookingTime, &r.SkillLevel, &r.Calories,
		&r.Instructions, &voiceRef, &photoRef, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, err
	}
	r.VoiceRef = voiceRef.String
	r.PhotoRef = photoRef.String
	return r, nil
}

// collectRecipes drains rows into a slice.
func collectRecipes(rows *sql.Rows) ([]models.Recipe, error) {
	defer rows.Close()
	var recipes []models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe rows: %w", err)
	}
	return recipes, nil
}

// scanProfile scans a UserProfile from a single sql.Row.
func scanProfile(row *sql.Row) (models.UserProfile, error) {
	var p models.UserProfile
	var displayName, banReason sql.NullString
	var bmi sql.NullFloat64
	err := row.Scan(&p.ActorID, &p.Username, &displayName, &p.Active, &banReason, &bmi, &p.JoinedAt)
	if err != nil {
		return p, err
	}
	p.DisplayName = displayName.String
	p.BanReason = banReason.String
	if bmi.Valid {
		p.BMI = bmi.Float64
	}
	return p, nil
}
