// Package models defines the persisted entities the record store manages.
package models

import "time"

// Recipe is a committed recipe record.
type Recipe struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	CookingTime  int       `json:"cooking_time"` // minutes
	SkillLevel   string    `json:"skill_level"`
	Calories     int       `json:"calories"`
	Instructions string    `json:"instructions"`
	VoiceRef     string    `json:"voice_ref,omitempty"`
	PhotoRef     string    `json:"photo_ref,omitempty"`
	OwnerID      string    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile is a registered user's record.
type UserProfile struct {
	ActorID     string    `json:"actor_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	BanReason   string    `json:"ban_reason,omitempty"`
	BMI         float64   `json:"bmi,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}
