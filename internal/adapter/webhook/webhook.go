// Package webhook delivers notifications as JSON POSTs to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/outage-notifier/internal/notify"
)

// Sender posts every message to one URL. It implements notify.Sender and has
// no delivery reference, so in-place edits are not supported.
type Sender struct {
	url    string
	client *http.Client
}

type payload struct {
	Kind      string `json:"kind,omitempty"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
	Replaces  string `json:"replaces,omitempty"`
}

// New constructs a Sender.
func New(url string) *Sender {
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to the webhook.
func (s *Sender) Send(ctx context.Context, msg notify.Message) (string, error) {
	if s == nil || s.url == "" {
		return "", notify.Permanent(errors.New("webhook: empty url"))
	}
	body, err := json.Marshal(payload{
		Kind:      string(msg.Kind),
		Text:      msg.Text,
		ParseMode: "HTML",
		Replaces:  msg.ReplaceRef,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", notify.Permanent(fmt.Errorf("webhook: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusMultipleChoices {
		err := fmt.Errorf("webhook: status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", notify.Permanent(err)
		}
		return "", err
	}
	return "", nil
}
