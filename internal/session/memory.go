package session

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns the flow's session for the conversation, or nil if none exists.
func (m *MemoryStore) Get(ctx context.Context, id ConversationID, flow string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[SessionKey(id, flow)]
	if !ok {
		return nil, nil
	}
	cp := *sess
	slog.Debug("MemoryStore.Get found session", "conversation", id.Key(), "flow", cp.Flow, "state", cp.Current)
	return &cp, nil
}

// Put inserts or replaces the session for its conversation and flow.
func (m *MemoryStore) Put(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sess
	m.sessions[SessionKey(sess.Conversation, sess.Flow)] = &cp
	slog.Debug("MemoryStore.Put stored session", "conversation", sess.Conversation.Key(), "flow", sess.Flow, "state", sess.Current)
	return nil
}

// Delete removes the flow's session for the conversation. Deleting a
// missing session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, id ConversationID, flow string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, SessionKey(id, flow))
	slog.Debug("MemoryStore.Delete removed session", "conversation", id.Key(), "flow", flow)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
