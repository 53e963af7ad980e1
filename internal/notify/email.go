package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailSender posts messages to an HTTP email provider.
type EmailSender struct {
	providerURL string
	apiKey      string
	from        string
	client      *http.Client
}

// NewEmailSender configures the provider endpoint and sender address.
func NewEmailSender(providerURL, apiKey, from string) *EmailSender {
	return &EmailSender{
		providerURL: providerURL,
		apiKey:      apiKey,
		from:        from,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers one email. Non-2xx provider responses are errors.
func (e *EmailSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(emailRequest{
		From:    e.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.providerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("email provider request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
