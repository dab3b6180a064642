package sendfox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/ports"
)

// Client reads lists from the SendFox API. SendFox has no campaign send
// endpoint, so the client is read-only.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.ListDirectory = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.SendFoxConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type listPayload struct {
	ID                      json.Number `json:"id"`
	Name                    string      `json:"name"`
	SubscribedContactsCount int         `json:"subscribed_contacts_count"`
}

// Lists returns the account's lists with subscriber counts.
func (c *Client) Lists(ctx context.Context) ([]ports.MailingList, error) {
	if c.apiKey == "" || c.baseURL == "" {
		return nil, domain.ErrNotConfigured
	}

	var resp struct {
		Data []listPayload `json:"data"`
	}
	if err := c.get(ctx, "/lists", &resp); err != nil {
		return nil, err
	}

	lists := make([]ports.MailingList, 0, len(resp.Data))
	for _, l := range resp.Data {
		lists = append(lists, ports.MailingList{
			ID:          l.ID.String(),
			Name:        l.Name,
			Subscribers: l.SubscribedContactsCount,
		})
	}
	return lists, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
