package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUpstream indicates the assistant webhook failed or misbehaved.
var ErrUpstream = errors.New("chat: assistant unavailable")

const webhookTimeout = 30 * time.Second

// Assistant forwards a user message and returns the assistant reply.
type Assistant interface {
	Send(ctx context.Context, msg Message) (json.RawMessage, error)
}

// Message is one user turn forwarded to the assistant.
type Message struct {
	ChatInput string `json:"chatInput"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// WebhookClient talks to the n8n workflow that fronts the assistant.
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

// NewWebhookClient constructs an assistant client.
func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// Send posts the message to the workflow and returns its JSON reply as-is.
func (c *WebhookClient) Send(ctx context.Context, msg Message) (json.RawMessage, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: webhook not configured", ErrUpstream)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("chat: encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chat: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var reply json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %v", ErrUpstream, err)
	}
	return reply, nil
}
