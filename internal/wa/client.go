package wa

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/atacadocell/backend-atacado/internal/resilience"
)

// ErrNotConfigured indicates the gateway client is missing required settings.
var ErrNotConfigured = errors.New("wa: client not configured")

// Client sends text messages through a WhatsApp HTTP gateway. Sends are
// best effort: the caller logs a failed send and continues, it never fails
// the parent operation.
type Client struct {
	BaseURL string
	Token   string
	HTTP    resilience.HTTPClient
}

// NewClient wires a gateway client with retry semantics: up to maxAttempts
// attempts with linearly increasing backoff.
func NewClient(baseURL, token string, timeout time.Duration, maxAttempts int, backoffBase time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("wa-gateway"),
			BaseBackoff: backoffBase,
			MaxAttempts: maxAttempts,
		},
	}
}

// SendText posts a message to the recipient phone (E.164 digits only).
func (c *Client) SendText(ctx context.Context, to, text string) error {
	if c == nil || c.BaseURL == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(map[string]string{
		"phone":   to,
		"message": text,
	})
	if err != nil {
		return fmt.Errorf("wa: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wa: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("wa: send: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wa: gateway returned %s", resp.Status)
	}
	return nil
}
