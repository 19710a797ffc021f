// Package messaging connects RecipeDesk to a chat transport. It turns
// inbound webhook requests into dialogue events and delivers handler
// replies back to the chat.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Constants for messaging service configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned for operations on a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// Service defines a pluggable chat transport abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. Returns the canonicalized recipient and an error if
	// validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendReply delivers a reply to a chat.
	SendReply(ctx context.Context, chatID string, r models.Reply) error

	// Start begins any background processing.
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns the channel of inbound dialogue events.
	Events() <-chan models.Event
}
