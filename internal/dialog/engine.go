package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/metrics"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// Opts holds configuration options for the Engine.
type Opts struct {
	// IdleTimeout deletes sessions with no activity for this long.
	// Zero disables idle expiry.
	IdleTimeout time.Duration
	// Metrics receives dispatch instrumentation. Nil disables it.
	Metrics *metrics.Metrics
}

// Option defines a configuration option for the Engine.
type Option func(*Opts)

// WithIdleTimeout sets the idle session expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.IdleTimeout = d
	}
}

// WithMetrics attaches dispatch instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Opts) {
		o.Metrics = m
	}
}

// Engine routes inbound events to flow handlers and persists sessions.
//
// Dispatch serializes events per chat, so handlers never race on a
// conversation's session.
type Engine struct {
	sessions    session.Store
	flows       []*Flow
	byName      map[string]*Flow
	locks       *keyedLock
	idle        *idleTimer
	idleTimeout time.Duration
	metrics     *metrics.Metrics
}

// NewEngine creates an engine backed by the given session store.
func NewEngine(sessions session.Store, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewEngine invoked", "idle_timeout", cfg.IdleTimeout, "metrics_set", cfg.Metrics != nil)
	return &Engine{
		sessions:    sessions,
		byName:      make(map[string]*Flow),
		locks:       newKeyedLock(),
		idle:        newIdleTimer(),
		idleTimeout: cfg.IdleTimeout,
		metrics:     cfg.Metrics,
	}
}

// Register adds a flow. Registration order decides entry-point precedence.
func (e *Engine) Register(f *Flow) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, exists := e.byName[f.Name]; exists {
		return fmt.Errorf("flow %s: %w", f.Name, ErrDuplicateFlow)
	}
	e.flows = append(e.flows, f)
	e.byName[f.Name] = f
	slog.Debug("Engine.Register added flow", "flow", f.Name, "states", len(f.States), "entry_points", len(f.EntryPoints))
	return nil
}

// Stop cancels all pending idle timers.
func (e *Engine) Stop() {
	e.idle.Stop()
}

// Dispatch routes one inbound event. At most one handler runs per event.
//
// Flows holding a session for the event's conversation get the first look,
// in registration order: reentrant flows check their entry points so a
// fresh entry restarts cleanly, then the current state's bindings, then
// the flow's fallbacks. An event a flow's bindings do not accept is not
// consumed; it falls through to the remaining flows and finally to the
// entry points of flows without a session. Events no binding accepts are
// dropped silently.
func (e *Engine) Dispatch(ctx context.Context, ev models.Event) error {
	if err := ev.Validate(); err != nil {
		slog.Error("Engine.Dispatch rejected invalid event", "error", err)
		return err
	}

	e.locks.Lock(ev.ChatID)
	defer e.locks.Unlock(ev.ChatID)

	active, err := e.activeSessions(ctx, ev)
	if err != nil {
		return err
	}

	for _, fl := range e.flows {
		sess := active[fl.Name]
		if sess == nil {
			continue
		}
		if fl.AllowReentry {
			if b, ok := match(fl.EntryPoints, ev); ok {
				if err := e.discard(ctx, sess.Conversation, fl.Name); err != nil {
					return err
				}
				slog.Debug("Engine.Dispatch restarting reentrant flow", "flow", fl.Name, "chat", ev.ChatID)
				return e.startFlow(ctx, ev, fl, b)
			}
		}
		b, ok := match(fl.States[sess.Current], ev)
		if !ok {
			b, ok = match(fl.Fallbacks, ev)
		}
		if !ok {
			continue
		}
		if err := e.rehydrate(sess, fl); err != nil {
			e.discard(ctx, sess.Conversation, fl.Name)
			return err
		}
		return e.advance(ctx, ev, fl, sess, b, metrics.OutcomeContinued)
	}

	for _, fl := range e.flows {
		if active[fl.Name] != nil {
			continue
		}
		b, ok := match(fl.EntryPoints, ev)
		if !ok {
			continue
		}
		return e.startFlow(ctx, ev, fl, b)
	}

	slog.Debug("Engine.Dispatch dropped event with no matching flow", "chat", ev.ChatID, "kind", ev.Kind)
	e.count("unmatched", metrics.OutcomeDropped)
	return nil
}

// activeSessions loads each registered flow's live session for the event's
// conversation, keyed by flow name. Each flow derives its own conversation
// key from its scope.
func (e *Engine) activeSessions(ctx context.Context, ev models.Event) (map[string]*session.Session, error) {
	active := make(map[string]*session.Session)
	for _, fl := range e.flows {
		id := fl.conversationID(ev)
		sess, err := e.sessions.Get(ctx, id, fl.Name)
		if err != nil {
			slog.Error("Engine.activeSessions session lookup failed", "error", err, "conversation", id.Key(), "flow", fl.Name)
			return nil, fmt.Errorf("session lookup failed: %w", err)
		}
		if sess != nil {
			active[fl.Name] = sess
		}
	}
	return active, nil
}

// rehydrate decodes a draft that round-tripped through a serializing store.
func (e *Engine) rehydrate(sess *session.Session, fl *Flow) error {
	raw, ok := sess.Draft.(json.RawMessage)
	if !ok {
		return nil
	}
	if fl.NewDraft == nil {
		sess.Draft = nil
		return nil
	}
	draft := fl.NewDraft()
	if err := json.Unmarshal(raw, draft); err != nil {
		slog.Error("Engine.rehydrate draft decode failed", "error", err, "flow", fl.Name)
		return fmt.Errorf("failed to decode draft for flow %s: %w", fl.Name, err)
	}
	sess.Draft = draft
	return nil
}

func (e *Engine) startFlow(ctx context.Context, ev models.Event, fl *Flow, b Binding) error {
	now := time.Now()
	sess := &session.Session{
		Conversation: fl.conversationID(ev),
		Flow:         fl.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if fl.NewDraft != nil {
		sess.Draft = fl.NewDraft()
	}
	return e.advance(ctx, ev, fl, sess, b, metrics.OutcomeStarted)
}

// advance runs the handler and persists or ends the session.
func (e *Engine) advance(ctx context.Context, ev models.Event, fl *Flow, sess *session.Session, b Binding, outcome string) error {
	next, err := b.Handler(ctx, ev, sess)
	if err != nil {
		if errors.Is(err, ErrAbort) {
			if derr := e.discard(ctx, sess.Conversation, fl.Name); derr != nil {
				return derr
			}
			e.count(fl.Name, metrics.OutcomeAborted)
			e.observeActive(ctx)
			return nil
		}
		slog.Error("Engine.advance handler failed", "error", err, "flow", fl.Name, "state", sess.Current)
		e.count(fl.Name, metrics.OutcomeFailed)
		return err
	}

	if next == models.StateEnd {
		if err := e.discard(ctx, sess.Conversation, fl.Name); err != nil {
			return err
		}
		e.count(fl.Name, metrics.OutcomeEnded)
		e.observeActive(ctx)
		return nil
	}

	if _, declared := fl.States[next]; !declared {
		e.discard(ctx, sess.Conversation, fl.Name)
		e.count(fl.Name, metrics.OutcomeFailed)
		slog.Error("Engine.advance handler returned undeclared state", "flow", fl.Name, "state", next)
		return fmt.Errorf("flow %s returned undeclared state %s", fl.Name, next)
	}

	sess.Current = next
	sess.UpdatedAt = time.Now()
	if err := e.sessions.Put(ctx, sess); err != nil {
		slog.Error("Engine.advance session persist failed", "error", err, "flow", fl.Name)
		e.count(fl.Name, metrics.OutcomeFailed)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	if e.idleTimeout > 0 {
		conv := sess.Conversation
		flow := fl.Name
		e.idle.Reset(session.SessionKey(conv, flow), e.idleTimeout, func() {
			e.expire(conv, flow)
		})
	}

	e.count(fl.Name, outcome)
	e.observeActive(ctx)
	return nil
}

// discard deletes the flow's session and cancels its idle timer.
func (e *Engine) discard(ctx context.Context, id session.ConversationID, flow string) error {
	e.idle.Cancel(session.SessionKey(id, flow))
	if err := e.sessions.Delete(ctx, id, flow); err != nil {
		slog.Error("Engine.discard session delete failed", "error", err, "conversation", id.Key(), "flow", flow)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// expire removes an idle session once its timer fires.
func (e *Engine) expire(conv session.ConversationID, flow string) {
	e.locks.Lock(conv.ChatID)
	defer e.locks.Unlock(conv.ChatID)

	ctx := context.Background()
	if err := e.sessions.Delete(ctx, conv, flow); err != nil {
		slog.Error("Engine.expire session delete failed", "error", err, "conversation", conv.Key(), "flow", flow)
		return
	}
	slog.Info("Engine expired idle session", "conversation", conv.Key(), "flow", flow)
	e.observeActive(ctx)
}

func (e *Engine) count(flow, outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.DispatchTotal.WithLabelValues(flow, outcome).Inc()
}

func (e *Engine) observeActive(ctx context.Context) {
	if e.metrics == nil {
		return
	}
	n, err := e.sessions.Count(ctx)
	if err != nil {
		slog.Debug("Engine.observeActive session count failed", "error", err)
		return
	}
	e.metrics.ActiveSessions.Set(float64(n))
}
