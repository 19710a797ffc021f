package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis as JSON values with a ZSET index
// for counting and lazy expiry cleanup.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration for sessions. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session keys.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to Redis and returns a session store.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing Redis client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "recipedesk:session:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(id ConversationID, flow string) string {
	return s.prefix + SessionKey(id, flow)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Get returns the flow's session for the conversation, or nil if none
// exists. The returned session's Draft is a json.RawMessage until
// rehydrated.
func (s *RedisStore) Get(ctx context.Context, id ConversationID, flow string) (*Session, error) {
	val, err := s.client.Get(ctx, s.key(id, flow)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	slog.Debug("RedisStore.Get found session", "conversation", id.Key(), "flow", sess.Flow, "state", sess.Current)
	return &sess, nil
}

// Put inserts or replaces the session, refreshing its TTL and index entry.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sess.Conversation, sess.Flow), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: SessionKey(sess.Conversation, sess.Flow),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}

	slog.Debug("RedisStore.Put stored session", "conversation", sess.Conversation.Key(), "flow", sess.Flow, "state", sess.Current)
	return nil
}

// Delete removes the session and its index entry. Deleting a missing
// session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id ConversationID, flow string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id, flow))
	pipe.ZRem(ctx, s.indexKey(), SessionKey(id, flow))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	slog.Debug("RedisStore.Delete removed session", "conversation", id.Key(), "flow", flow)
	return nil
}

// Count returns the number of live sessions. Values expire via their TTL,
// so the index is reconciled against key existence and stale entries are
// pruned lazily here.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list session index: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*backend.IntCmd, len(members))
	for i, member := range members {
		checks[i] = pipe.Exists(ctx, s.prefix+member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to check session keys: %w", err)
	}

	live := 0
	var stale []interface{}
	for i, cmd := range checks {
		if cmd.Val() > 0 {
			live++
		} else {
			stale = append(stale, members[i])
		}
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return 0, fmt.Errorf("failed to prune expired sessions: %w", err)
		}
	}
	return live, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
