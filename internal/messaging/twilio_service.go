package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/media"
	"github.com/recipedesk/RecipeDesk/internal/metrics"
	"github.com/recipedesk/RecipeDesk/internal/models"
	"github.com/recipedesk/RecipeDesk/internal/twiliochat"
)

// phoneNumberRegex strips everything but digits from a recipient.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// maxInboundMediaBytes caps the size of a fetched inbound attachment.
const maxInboundMediaBytes = 16 << 20

// TwilioOpts holds configuration for the Twilio-backed service.
type TwilioOpts struct {
	Media            *media.Store
	Metrics          *metrics.Metrics
	MediaBaseURL     string
	HTTPClient       *http.Client
	CallbackPrefixes []string
}

// TwilioOption defines a configuration option for TwilioService.
type TwilioOption func(*TwilioOpts)

// WithMediaStore sets the store inbound attachments are saved to and
// outbound media refs are checked against.
func WithMediaStore(m *media.Store) TwilioOption {
	return func(o *TwilioOpts) { o.Media = m }
}

// WithMetrics enables transport instrumentation.
func WithMetrics(m *metrics.Metrics) TwilioOption {
	return func(o *TwilioOpts) { o.Metrics = m }
}

// WithMediaBaseURL sets the public base URL stored media is served from.
// Twilio fetches outbound attachments by URL, so replies can only carry
// media when this is set.
func WithMediaBaseURL(base string) TwilioOption {
	return func(o *TwilioOpts) { o.MediaBaseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the client used to fetch inbound attachments.
func WithHTTPClient(c *http.Client) TwilioOption {
	return func(o *TwilioOpts) { o.HTTPClient = c }
}

// WithCallbackPrefixes declares the token prefixes inbound bodies are
// classified as callback events by, so a typed token works like tapping
// the button that carries it.
func WithCallbackPrefixes(prefixes ...string) TwilioOption {
	return func(o *TwilioOpts) { o.CallbackPrefixes = prefixes }
}

// TwilioService implements Service over the Twilio WhatsApp API.
//
// WhatsApp has no inline buttons through this API, so keyboards are
// rendered as numbered option lines and the last keyboard shown to each
// chat is remembered. A bare number in the next inbound message replays
// the matching button.
type TwilioService struct {
	sender           twiliochat.Sender
	media            *media.Store
	metrics          *metrics.Metrics
	mediaBaseURL     string
	httpClient       *http.Client
	callbackPrefixes []string

	events chan models.Event
	done   chan struct{}

	mu        sync.RWMutex
	stopped   bool
	keyboards map[string][]models.Button // chat id -> last rendered buttons
}

// NewTwilioService creates a TwilioService delivering through the sender.
func NewTwilioService(sender twiliochat.Sender, opts ...TwilioOption) *TwilioService {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &TwilioService{
		sender:           sender,
		media:            cfg.Media,
		metrics:          cfg.Metrics,
		mediaBaseURL:     cfg.MediaBaseURL,
		httpClient:       cfg.HTTPClient,
		callbackPrefixes: cfg.CallbackPrefixes,
		events:           make(chan models.Event, DefaultChannelBufferSize),
		done:             make(chan struct{}),
		keyboards:        make(map[string][]models.Button),
	}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp
// phone number. It removes all non-numeric characters and validates the
// result has at least 6 digits.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	if recipient != canonical {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op: inbound traffic arrives over the webhook.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the event channel and stops the service.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.events)
	}()

	return nil
}

// Events returns the channel of inbound dialogue events.
func (s *TwilioService) Events() <-chan models.Event {
	return s.events
}

// SendReply delivers a reply to a chat, rendering any keyboard as numbered
// option lines and attaching stored media by public URL.
func (s *TwilioService) SendReply(ctx context.Context, chatID string, r models.Reply) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	to, err := s.ValidateAndCanonicalizeRecipient(chatID)
	if err != nil {
		slog.Error("TwilioService.SendReply recipient validation failed", "error", err, "chat", chatID)
		return err
	}

	body := r.Text
	if len(r.Keyboard) > 0 {
		body = s.renderKeyboard(to, body, r.Keyboard)
	}

	err = s.deliver(ctx, to, body, r.Media)
	if s.metrics != nil {
		result := "sent"
		if err != nil {
			result = "failed"
		}
		s.metrics.OutboundTotal.WithLabelValues(result).Inc()
	}
	return err
}

func (s *TwilioService) deliver(ctx context.Context, to, body string, m *models.Media) error {
	if m == nil {
		return s.sender.SendText(ctx, to, body)
	}

	url, err := s.mediaURL(m)
	if err != nil {
		slog.Debug("TwilioService.SendReply media unavailable", "error", err, "kind", m.Kind, "ref", m.Ref)
		fallback := "(media unavailable)"
		if body != "" {
			fallback = body + "\n(media unavailable)"
		}
		return s.sender.SendText(ctx, to, fallback)
	}
	return s.sender.SendMedia(ctx, to, body, url)
}

// mediaURL resolves a media reference to the public URL Twilio fetches it
// from, verifying the item exists first.
func (s *TwilioService) mediaURL(m *models.Media) (string, error) {
	if s.mediaBaseURL == "" {
		return "", fmt.Errorf("media base URL not configured")
	}
	if s.media != nil {
		if _, err := s.media.Resolve(m.Kind, m.Ref); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s/v1/media/%s/%s", s.mediaBaseURL, m.Kind, m.Ref), nil
}

// renderKeyboard appends numbered option lines to the body and remembers
// the buttons so a bare-number reply can be matched later.
func (s *TwilioService) renderKeyboard(chatID, body string, kb models.Keyboard) string {
	var buttons []models.Button
	var b strings.Builder
	b.WriteString(body)
	for _, row := range kb {
		for _, btn := range row {
			buttons = append(buttons, btn)
			fmt.Fprintf(&b, "\n%d. %s", len(buttons), btn.Label)
		}
	}
	if len(buttons) > 0 {
		b.WriteString("\n\nReply with a number to choose.")
	}

	s.mu.Lock()
	s.keyboards[chatID] = buttons
	s.mu.Unlock()

	return b.String()
}

// TwilioWebhookHandler handles inbound Twilio webhook requests, classifying
// each message into a dialogue event.
func (s *TwilioService) TwilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	chatID, err := s.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Warn("Twilio webhook sender invalid", "from", from, "error", err)
		http.Error(w, "Invalid sender", http.StatusBadRequest)
		return
	}

	ev := models.Event{
		ID:          r.FormValue("MessageSid"),
		ChatID:      chatID,
		ActorID:     chatID,
		DisplayName: r.FormValue("ProfileName"),
		Time:        time.Now().Unix(),
	}

	numMedia, _ := strconv.Atoi(r.FormValue("NumMedia"))
	if numMedia > 0 {
		if !s.attachInboundMedia(r, &ev) {
			// Unsupported or unfetchable attachments are acknowledged so
			// Twilio does not retry them.
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "OK")
			return
		}
	} else {
		s.classifyBody(chatID, r.FormValue("Body"), &ev)
	}

	slog.Debug("Twilio webhook event", "chat", chatID, "kind", ev.Kind)
	if s.metrics != nil {
		s.metrics.InboundTotal.WithLabelValues(string(ev.Kind)).Inc()
	}
	s.safeEmitEvent(ev)

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// classifyBody fills in the event kind and payload for a text message.
func (s *TwilioService) classifyBody(chatID, body string, ev *models.Event) {
	text := strings.TrimSpace(body)

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		ev.Kind = models.TriggerCommand
		ev.Command = strings.ToLower(strings.TrimPrefix(fields[0], "/"))
		ev.Args = fields[1:]
		return
	}

	// A typed token with a known prefix works like tapping its button.
	for _, prefix := range s.callbackPrefixes {
		if prefix != "" && strings.HasPrefix(text, prefix) {
			ev.Kind = models.TriggerCallback
			ev.Payload = text
			return
		}
	}

	// A bare number replays a button from the last keyboard shown.
	if n, err := strconv.Atoi(text); err == nil {
		s.mu.RLock()
		buttons := s.keyboards[chatID]
		s.mu.RUnlock()
		if n >= 1 && n <= len(buttons) {
			btn := buttons[n-1]
			if btn.Callback != "" {
				ev.Kind = models.TriggerCallback
				ev.Payload = btn.Callback
				return
			}
			if btn.Command != "" {
				ev.Kind = models.TriggerCommand
				ev.Command = btn.Command
				return
			}
			// Label-only buttons stand in for plain text answers.
			ev.Kind = models.TriggerText
			ev.Text = btn.Label
			return
		}
	}

	ev.Kind = models.TriggerText
	ev.Text = text
}

// attachInboundMedia fetches the first attachment and stores it, reporting
// whether the event was populated.
func (s *TwilioService) attachInboundMedia(r *http.Request, ev *models.Event) bool {
	if s.media == nil {
		slog.Warn("Twilio webhook attachment dropped: no media store", "chat", ev.ChatID)
		return false
	}

	contentType := r.FormValue("MediaContentType0")
	var kind models.MediaKind
	switch {
	case strings.HasPrefix(contentType, "image/"):
		kind = models.MediaPhoto
	case strings.HasPrefix(contentType, "audio/"):
		kind = models.MediaVoice
	default:
		slog.Warn("Twilio webhook attachment has unsupported type", "content_type", contentType, "chat", ev.ChatID)
		return false
	}

	data, err := s.fetchMedia(r.Context(), r.FormValue("MediaUrl0"))
	if err != nil {
		slog.Error("Twilio webhook attachment fetch failed", "error", err, "chat", ev.ChatID)
		return false
	}
	ref, err := s.media.Save(kind, data)
	if err != nil {
		slog.Error("Twilio webhook attachment store failed", "error", err, "chat", ev.ChatID)
		return false
	}

	ev.Kind = models.TriggerMedia
	ev.Media = &models.Media{Kind: kind, Ref: ref}
	return true
}

func (s *TwilioService) fetchMedia(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("attachment URL missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxInboundMediaBytes))
}

// safeEmitEvent pushes an event into the events channel without blocking
// the webhook handler indefinitely.
func (s *TwilioService) safeEmitEvent(ev models.Event) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("TwilioService dropping inbound event (service stopped)", "chat", ev.ChatID)
		return
	}

	select {
	case s.events <- ev:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService events channel blocked, dropping event", "chat", ev.ChatID)
	}
}
