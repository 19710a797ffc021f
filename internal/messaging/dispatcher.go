package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Dispatcher pumps inbound events from the transport into the dialogue
// engine, binding a reply sink for the event's chat.
type Dispatcher struct {
	engine *dialog.Engine
	svc    Service
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher connecting the service to the engine.
func NewDispatcher(engine *dialog.Engine, svc Service) *Dispatcher {
	return &Dispatcher{engine: engine, svc: svc}
}

// Start begins consuming events. It returns once the pump goroutine is
// running; the pump exits when the service's event channel closes or the
// context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-d.svc.Events():
				if !ok {
					return
				}
				d.dispatch(ctx, ev)
			}
		}
	}()
}

// Wait blocks until the pump goroutine and all in-flight dispatches finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, ev models.Event) {
	ev.Sink = &serviceSink{svc: d.svc, chatID: ev.ChatID}

	// Dispatch concurrently so one slow conversation cannot stall the
	// pump. The engine serializes events per chat.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.engine.Dispatch(ctx, ev); err != nil {
			slog.Error("Dispatcher event dispatch failed", "error", err, "chat", ev.ChatID, "kind", ev.Kind)
		}
	}()
}

// serviceSink adapts the transport to the engine's reply sink.
type serviceSink struct {
	svc    Service
	chatID string
}

func (s *serviceSink) Send(ctx context.Context, r models.Reply) error {
	return s.svc.SendReply(ctx, s.chatID, r)
}
