package session

import "context"

// Store persists sessions between turns, keyed by conversation and flow.
//
// Get returns nil, nil when the flow has no session for the conversation.
type Store interface {
	Get(ctx context.Context, id ConversationID, flow string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id ConversationID, flow string) error
	Count(ctx context.Context) (int, error)
}
