// Package twiliochat wraps the Twilio REST API used to deliver RecipeDesk
// replies over WhatsApp.
package twiliochat

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender is the outbound surface the messaging service depends on.
type Sender interface {
	SendText(ctx context.Context, to string, body string) error
	SendMedia(ctx context.Context, to string, body string, mediaURL string) error
}

// Opts holds configuration for the Twilio client.
type Opts struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Option defines a configuration option for the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFrom sets the sending WhatsApp number.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// Client wraps the Twilio REST API for WhatsApp.
type Client struct {
	client *twilio.RestClient
	from   string // WhatsApp number in "whatsapp:+1234567890" format
}

// NewClient builds a Client from options, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and TWILIO_FROM_NUMBER environment
// variables for anything not provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Client{client: client, from: cfg.From}, nil
}

// SendText sends a plain WhatsApp message.
func (c *Client) SendText(ctx context.Context, to string, body string) error {
	return c.send(to, body, "")
}

// SendMedia sends a WhatsApp message carrying a media attachment by URL.
func (c *Client) SendMedia(ctx context.Context, to string, body string, mediaURL string) error {
	return c.send(to, body, mediaURL)
}

func (c *Client) send(to, body, mediaURL string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + to)
	params.SetFrom(c.from)
	if body != "" {
		params.SetBody(body)
	}
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio message send failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	slog.Debug("Twilio message sent", "to", to, "media", mediaURL != "")
	return nil
}

// SentMessage records one outbound message captured by MockClient.
type SentMessage struct {
	To       string
	Body     string
	MediaURL string
}

// MockClient is a Sender that records messages instead of sending them.
type MockClient struct {
	SentMessages []SentMessage
}

func NewMockClient() *MockClient {
	return &MockClient{SentMessages: []SentMessage{}}
}

func (m *MockClient) SendText(ctx context.Context, to string, body string) error {
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}

func (m *MockClient) SendMedia(ctx context.Context, to string, body string, mediaURL string) error {
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body, MediaURL: mediaURL})
	return nil
}
