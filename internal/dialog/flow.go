// Package dialog implements the conversation engine for RecipeDesk.
//
// A Flow declares entry points, per-state bindings, and fallbacks. The
// Engine resolves inbound events against registered flows, runs the matched
// handler, and persists the resulting session state between turns.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/session"
)

// ErrAbort signals that the handler wants the session deleted without an
// error reaching the user. Cancel handlers return it after sending their
// own farewell.
var ErrAbort = errors.New("conversation aborted")

// ErrDuplicateFlow is returned by Register when a flow with the same name
// is already registered.
var ErrDuplicateFlow = errors.New("flow already registered")

// HandlerFunc processes one event for a session and returns the next state.
// Returning models.StateEnd ends the session.
type HandlerFunc func(ctx context.Context, ev models.Event, sess *session.Session) (models.StateType, error)

// Trigger describes which events a binding reacts to.
type Trigger struct {
	Kind models.TriggerKind
	// Command matches command events by name (no leading slash).
	// Empty matches any command.
	Command string
	// CallbackPrefix matches callback events whose payload starts with it.
	// Empty matches any callback.
	CallbackPrefix string
	// MediaKind restricts media events. Empty matches any media.
	MediaKind models.MediaKind
}

// Matches reports whether the trigger accepts the event.
func (t Trigger) Matches(ev models.Event) bool {
	if ev.Kind != t.Kind {
		return false
	}
	switch t.Kind {
	case models.TriggerCommand:
		return t.Command == "" || ev.Command == t.Command
	case models.TriggerCallback:
		return strings.HasPrefix(ev.Payload, t.CallbackPrefix)
	case models.TriggerText:
		return true
	case models.TriggerMedia:
		if ev.Media == nil {
			return false
		}
		return t.MediaKind == "" || ev.Media.Kind == t.MediaKind
	default:
		return false
	}
}

// Binding pairs a trigger with its handler.
type Binding struct {
	Trigger Trigger
	Handler HandlerFunc
}

// OnCommand binds a handler to a command by name (no leading slash).
func OnCommand(name string, h HandlerFunc) Binding {
	return Binding{Trigger: Trigger{Kind: models.TriggerCommand, Command: name}, Handler: h}
}

// OnCallback binds a handler to callback payloads with the given prefix.
func OnCallback(prefix string, h HandlerFunc) Binding {
	return Binding{Trigger: Trigger{Kind: models.TriggerCallback, CallbackPrefix: prefix}, Handler: h}
}

// OnText binds a handler to free-text events.
func OnText(h HandlerFunc) Binding {
	return Binding{Trigger: Trigger{Kind: models.TriggerText}, Handler: h}
}

// OnMedia binds a handler to media events of the given kind.
// An empty kind matches any media.
func OnMedia(kind models.MediaKind, h HandlerFunc) Binding {
	return Binding{Trigger: Trigger{Kind: models.TriggerMedia, MediaKind: kind}, Handler: h}
}

// Flow is one registered conversation.
type Flow struct {
	// Name identifies the flow in sessions, logs, and metrics.
	Name string
	// Scope controls whether the session is keyed per chat or per user.
	Scope session.Scope
	// AllowReentry lets an entry-point match restart the flow even while
	// a session for it is active.
	AllowReentry bool
	// EntryPoints start a new session when no session is active.
	EntryPoints []Binding
	// States maps each state to its bindings, tried in order.
	States map[models.StateType][]Binding
	// Fallbacks are tried when no binding of the current state matches.
	Fallbacks []Binding
	// NewDraft returns a fresh draft pointer for the flow. It is also
	// used to rehydrate drafts loaded from a serializing session store.
	// Nil for flows that carry no draft.
	NewDraft func() any
}

// Validate checks the flow declaration.
func (f *Flow) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("flow name cannot be empty")
	}
	if len(f.EntryPoints) == 0 {
		return fmt.Errorf("flow %s has no entry points", f.Name)
	}
	for _, b := range f.EntryPoints {
		if b.Handler == nil {
			return fmt.Errorf("flow %s has an entry point without a handler", f.Name)
		}
	}
	for state, bindings := range f.States {
		if state == models.StateEnd {
			return fmt.Errorf("flow %s declares bindings for the terminal state", f.Name)
		}
		for _, b := range bindings {
			if b.Handler == nil {
				return fmt.Errorf("flow %s state %s has a binding without a handler", f.Name, state)
			}
		}
	}
	return nil
}

// conversationID derives the session key for an event under the flow's scope.
func (f *Flow) conversationID(ev models.Event) session.ConversationID {
	if f.Scope == session.ScopePerChat {
		return session.ConversationID{ChatID: ev.ChatID}
	}
	return session.ConversationID{ChatID: ev.ChatID, ActorID: ev.ActorID}
}

// match returns the first binding in the list accepting the event.
func match(bindings []Binding, ev models.Event) (Binding, bool) {
	for _, b := range bindings {
		if b.Trigger.Matches(ev) {
			return b, true
		}
	}
	return Binding{}, false
}
