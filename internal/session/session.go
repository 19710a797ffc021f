// Package session defines conversation session state and the stores that
// persist it between turns.
//
// A session pins one conversation to one flow and one state within that flow.
// Stores keep sessions keyed by conversation identity so the dialogue engine
// can resume a multi-turn exchange on the next inbound event.
package session

import (
	"encoding/json"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Scope controls how a flow's conversation identity is derived.
type Scope string

const (
	// ScopePerChat keys sessions by chat alone. Any actor in the chat
	// continues the same session.
	ScopePerChat Scope = "per-chat"
	// ScopePerUser keys sessions by chat and actor together.
	ScopePerUser Scope = "per-user"
)

// ConversationID identifies the conversation a session belongs to.
// ActorID is empty for per-chat scoped sessions.
type ConversationID struct {
	ChatID  string `json:"chat_id"`
	ActorID string `json:"actor_id,omitempty"`
}

// Key returns the canonical storage key for the conversation.
func (c ConversationID) Key() string {
	if c.ActorID == "" {
		return c.ChatID
	}
	return c.ChatID + "|" + c.ActorID
}

// SessionKey returns the storage key for a flow's session in a conversation.
// Each flow keeps at most one session per conversation, so the flow name is
// part of the key.
func SessionKey(id ConversationID, flow string) string {
	return id.Key() + "|" + flow
}

// Session is one live multi-turn conversation.
type Session struct {
	Conversation ConversationID   `json:"conversation"`
	Flow         string           `json:"flow"`
	Current      models.StateType `json:"current"`

	// Draft holds the flow's accumulated input. After a round-trip through
	// a serializing store it surfaces as json.RawMessage until the engine
	// rehydrates it into the flow's draft type.
	Draft any `json:"draft,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes a session while deferring draft decoding to the
// owning flow, which knows the concrete draft type.
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias struct {
		Conversation ConversationID   `json:"conversation"`
		Flow         string           `json:"flow"`
		Current      models.StateType `json:"current"`
		Draft        json.RawMessage  `json:"draft,omitempty"`
		CreatedAt    time.Time        `json:"created_at"`
		UpdatedAt    time.Time        `json:"updated_at"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	s.Conversation = a.Conversation
	s.Flow = a.Flow
	s.Current = a.Current
	s.CreatedAt = a.CreatedAt
	s.UpdatedAt = a.UpdatedAt
	if len(a.Draft) > 0 {
		s.Draft = a.Draft
	} else {
		s.Draft = nil
	}
	return nil
}
