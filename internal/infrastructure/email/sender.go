package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/ports"
)

// Sender posts transactional email to a Resend-compatible API.
type Sender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.Mailer = (*Sender)(nil)

// NewSender registers the API endpoint and key.
func NewSender(cfg config.EmailConfig) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the sender has credentials to deliver mail.
func (s *Sender) Configured() bool {
	return s != nil && s.apiKey != "" && s.endpoint != "" && s.client != nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send delivers msg and returns the provider message id.
func (s *Sender) Send(ctx context.Context, msg ports.Email) (string, error) {
	if !s.Configured() {
		return "", domain.ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: email api %s: %s", domain.ErrDelivery, resp.Status, strings.TrimSpace(string(detail)))
	}

	var sent struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&sent)
	return sent.ID, nil
}
