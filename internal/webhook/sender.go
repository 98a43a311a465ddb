package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 1024

type payload struct {
	Content string `json:"content"`
}

// Sender posts a single message to a webhook URL.
type Sender struct {
	client    *http.Client
	userAgent string
}

// NewSender builds a sender. A zero timeout leaves the transport's own
// behavior in place.
func NewSender(timeout time.Duration, userAgent string) *Sender {
	return NewSenderWithClient(&http.Client{Timeout: timeout}, userAgent)
}

func NewSenderWithClient(client *http.Client, userAgent string) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client, userAgent: userAgent}
}

func (s *Sender) Send(ctx context.Context, url, content string) error {
	body, err := json.Marshal(payload{Content: content})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if IsSuccess(resp.StatusCode) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	excerpt, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		excerpt = nil
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}

func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
