// Package line is a minimal client for the LINE Messaging API push endpoint.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/config"
	"github.com/hsinyuc/linecast/internal/obs/retry"
)

// ErrNotConfigured is returned when no channel access token has been saved.
var ErrNotConfigured = errors.New("line: channel access token not configured")

// TokenSource yields the current channel access token. It is read per push,
// so a token saved through the settings API takes effect immediately.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a non-2xx response from the push endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line: push failed: status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether a later attempt may succeed: rate limiting or a
// LINE-side outage, as opposed to a bad target or bad credentials.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Client struct {
	base     string
	tokens   TokenSource
	hc       *http.Client
	attempts int
	backoff  retry.ExpoJitter
	log      *zap.Logger
}

func NewClient(cfg config.LineCfg, tokens TokenSource, log *zap.Logger) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.line.me"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:     base,
		tokens:   tokens,
		hc:       &http.Client{Timeout: timeout},
		attempts: cfg.RetryAttempts,
		backoff:  retry.ExpoJitter{Base: cfg.RetryBase, Max: 5 * time.Second, Jitter: 0.2},
		log:      log.With(zap.String("component", "line.client")),
	}
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Push delivers text to one channel (group or room id). Transient API errors
// are retried in-call with backoff; whatever survives is the caller's
// per-target failure.
func (c *Client) Push(ctx context.Context, channelID, text string) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("line: load token: %w", err)
	}
	if token == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(pushRequest{
		To:       channelID,
		Messages: []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line: marshal push: %w", err)
	}

	return retry.Do(ctx, func() error {
		return c.push(ctx, token, payload)
	}, retry.Policy{
		Name:     "line.push",
		Attempts: c.attempts,
		Backoff:  c.backoff,
		Retryable: func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Transient()
		},
		OnAttempt: func(attempt int, err error) {
			c.log.Debug("push attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		},
	})
}

func (c *Client) push(ctx context.Context, token string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v2/bot/message/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("line: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("line: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
