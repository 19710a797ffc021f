// Package models defines the core data structures for RecipeDesk.
//
// It includes inbound event and outbound reply types shared between the
// dialogue engine, the flows, and the transport layer.
package models

import (
	"context"
	"errors"
)

// TriggerKind classifies what kind of payload an inbound event carries.
type TriggerKind string

const (
	// TriggerCommand is a slash-command token (e.g. "/start").
	TriggerCommand TriggerKind = "command"
	// TriggerCallback is a structured callback token (e.g. "edit_recipe_12").
	TriggerCallback TriggerKind = "callback"
	// TriggerText is free text with no command or callback token.
	TriggerText TriggerKind = "text"
	// TriggerMedia is an attached photo or voice message.
	TriggerMedia TriggerKind = "media"
)

// IsValidTriggerKind checks if the given trigger kind is supported.
func IsValidTriggerKind(k TriggerKind) bool {
	switch k {
	case TriggerCommand, TriggerCallback, TriggerText, TriggerMedia:
		return true
	default:
		return false
	}
}

// MediaKind identifies the type of an attached or stored media item.
type MediaKind string

const (
	// MediaPhoto is a still image.
	MediaPhoto MediaKind = "photo"
	// MediaVoice is a recorded voice message.
	MediaVoice MediaKind = "voice"
)

// Media references a media item held by the media store or the transport.
type Media struct {
	Kind MediaKind `json:"kind"`
	Ref  string    `json:"ref"`
}

// Error variables for better error handling and testability.
var (
	ErrEmptyChatID      = errors.New("chat id cannot be empty")
	ErrEmptyActorID     = errors.New("actor id cannot be empty")
	ErrInvalidTrigger   = errors.New("invalid trigger kind")
	ErrNotFound         = errors.New("record not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrPersistence      = errors.New("persistence failure")
	ErrMediaUnavailable = errors.New("media unavailable")
)

// ReplySink delivers replies for the conversation an event arrived on.
// The transport binds a sink to each event before handing it to the engine.
type ReplySink interface {
	Send(ctx context.Context, r Reply) error
}

// Event represents one inbound message delivered by the transport.
type Event struct {
	ID          string      `json:"id"`
	ChatID      string      `json:"chat_id"`
	ActorID     string      `json:"actor_id"`
	DisplayName string      `json:"display_name,omitempty"`
	Kind        TriggerKind `json:"kind"`
	Command     string      `json:"command,omitempty"` // command name without the leading slash
	Args        []string    `json:"args,omitempty"`    // remaining command tokens
	Text        string      `json:"text,omitempty"`
	Payload     string      `json:"payload,omitempty"` // callback token
	Media       *Media      `json:"media,omitempty"`
	Time        int64       `json:"time"`

	// Sink delivers replies for this event's chat. Never serialized.
	Sink ReplySink `json:"-"`
}

// Validate performs basic validation on an inbound Event.
func (e *Event) Validate() error {
	if e.ChatID == "" {
		return ErrEmptyChatID
	}
	if e.ActorID == "" {
		return ErrEmptyActorID
	}
	if !IsValidTriggerKind(e.Kind) {
		return ErrInvalidTrigger
	}
	return nil
}

// Button is a single selectable option on a reply keyboard.
// Exactly one of Command or Callback should be set.
type Button struct {
	Label    string `json:"label"`
	Command  string `json:"command,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// Keyboard is a grid of buttons attached to a reply.
type Keyboard [][]Button

// Reply represents one outbound message produced by a handler.
type Reply struct {
	Text     string   `json:"text,omitempty"`
	Media    *Media   `json:"media,omitempty"`
	Keyboard Keyboard `json:"keyboard,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
