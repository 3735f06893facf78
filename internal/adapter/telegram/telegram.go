// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/outage-notifier/internal/notify"
)

const defaultBaseURL = "https://api.telegram.org"

// Sender posts HTML messages to one chat. It implements notify.Sender and
// returns the Telegram message_id as the delivery reference.
type Sender struct {
	token       string
	chatID      string
	editInPlace bool
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithEditInPlace makes messages with a ReplaceRef edit that message.
func WithEditInPlace(enabled bool) Option {
	return func(s *Sender) { s.editInPlace = enabled }
}

// WithBaseURL points the sender at another Bot API server.
func WithBaseURL(u string) Option {
	return func(s *Sender) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the default client with a 10s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// New returns a Sender for token and chatID.
func New(token, chatID string, logger *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate ensures there is enough configuration to deliver anything.
func (s *Sender) Validate() error {
	if s.token == "" || s.chatID == "" {
		return errors.New("telegram: bot token and chat id are required")
	}
	return nil
}

type request struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
	MessageID int64  `json:"message_id,omitempty"`
}

type response struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// Send posts msg, or edits msg.ReplaceRef when editing in place. An edit whose
// target is gone falls back to a new message; an edit that changes nothing
// counts as delivered.
func (s *Sender) Send(ctx context.Context, msg notify.Message) (string, error) {
	if err := s.Validate(); err != nil {
		return "", notify.Permanent(err)
	}
	if s.editInPlace && msg.ReplaceRef != "" {
		id, err := strconv.ParseInt(msg.ReplaceRef, 10, 64)
		if err == nil {
			ref, err := s.edit(ctx, id, msg.Text)
			switch {
			case err == nil:
				return ref, nil
			case isNotModified(err):
				return msg.ReplaceRef, nil
			case isEditTargetGone(err):
				s.logger.Info("telegram message to edit is gone, posting a new one", "message_id", id)
			default:
				return "", err
			}
		}
	}
	return s.post(ctx, msg.Text)
}

func (s *Sender) post(ctx context.Context, text string) (string, error) {
	return s.call(ctx, "sendMessage", request{ChatID: s.chatID, Text: text, ParseMode: "HTML"})
}

func (s *Sender) edit(ctx context.Context, id int64, text string) (string, error) {
	return s.call(ctx, "editMessageText", request{ChatID: s.chatID, Text: text, ParseMode: "HTML", MessageID: id})
}

// APIError is an error answer from the Bot API.
type APIError struct {
	Method      string
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.Status, e.Description)
}

func (s *Sender) call(ctx context.Context, method string, payload request) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram %s request: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read telegram response: %w", err)
	}
	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return "", classify(&APIError{Method: method, Status: resp.StatusCode, Description: string(raw)})
		}
		return "", fmt.Errorf("decode telegram response: %w", err)
	}
	if !out.OK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", classify(&APIError{Method: method, Status: resp.StatusCode, Description: out.Description})
	}

	var sent sentMessage
	if err := json.Unmarshal(out.Result, &sent); err != nil || sent.MessageID == 0 {
		// editMessageText answers "true" for inline messages.
		return "", nil
	}
	return strconv.FormatInt(sent.MessageID, 10), nil
}

func (s *Sender) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)
}

// classify marks client errors other than rate limiting as permanent.
func classify(err *APIError) error {
	if err.Status >= 400 && err.Status < 500 && err.Status != http.StatusTooManyRequests {
		return notify.Permanent(err)
	}
	return err
}

func isNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified")
}

func isEditTargetGone(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	d := apiErr.Description
	return strings.Contains(d, "message to edit not found") || strings.Contains(d, "message can't be edited")
}
