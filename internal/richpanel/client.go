// Package richpanel provides a thin client for the Richpanel ticket API.
package richpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// Ticket is the slice of a Richpanel conversation the pipeline consumes.
type Ticket struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	State  string   `json:"state"`
	Tags   []string `json:"tags"`
}

// IsResolved reports whether the ticket is in a terminal state under
// either field name and either casing the API uses.
func (t *Ticket) IsResolved() bool {
	for _, v := range []string{t.Status, t.State} {
		switch strings.ToLower(v) {
		case "closed", "resolved":
			return true
		}
	}
	return false
}

// HasTag reports whether the ticket carries the tag, case-insensitively.
func (t *Ticket) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// Client calls the Richpanel API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a Richpanel client. Returns nil when no base URL is
// configured; callers treat a nil client as network-unavailable.
func NewClient(cfg config.RichpanelConfig, log *logger.Logger) *Client {
	if cfg.GetRichpanelBaseURL() == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GetRichpanelBaseURL(), "/"),
		apiKey:  cfg.GetRichpanelAPIKey(),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// GetTicket fetches the current conversation state.
func (c *Client) GetTicket(ctx context.Context, conversationID string) (*Ticket, error) {
	endpoint := fmt.Sprintf("%s/conversations/%s", c.baseURL, url.PathEscape(conversationID))

	body, err := c.do(ctx, "get_ticket", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	// The conversation may arrive bare or under a wrapper key.
	var wrapper struct {
		Conversation *Ticket `json:"conversation"`
		Ticket       *Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if wrapper.Conversation != nil {
			wrapper.Conversation.ID = conversationID
			return wrapper.Conversation, nil
		}
		if wrapper.Ticket != nil {
			wrapper.Ticket.ID = conversationID
			return wrapper.Ticket, nil
		}
	}

	var ticket Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, apperr.Parse("decode richpanel conversation")
	}
	ticket.ID = conversationID
	return &ticket, nil
}

// UpdateTicket sends a raw update payload against the conversation. The
// caller owns the payload shape; the client only reports transport outcome.
func (c *Client) UpdateTicket(ctx context.Context, conversationID string, payload map[string]any) error {
	endpoint := fmt.Sprintf("%s/conversations/%s", c.baseURL, url.PathEscape(conversationID))
	_, err := c.do(ctx, "update_ticket", http.MethodPut, endpoint, payload)
	return err
}

// AddTags applies tags to the conversation.
func (c *Client) AddTags(ctx context.Context, conversationID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/conversations/%s/tags", c.baseURL, url.PathEscape(conversationID))
	_, err := c.do(ctx, "add_tags", http.MethodPost, endpoint, map[string]any{"tags": tags})
	return err
}

func (c *Client) do(ctx context.Context, operation, method, endpoint string, payload map[string]any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-richpanel-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.OutboundCall("richpanel", operation, 0, err)
		return nil, apperr.Upstream("richpanel request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.log.OutboundCall("richpanel", operation, resp.StatusCode, nil)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream("read richpanel response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound("richpanel conversation not found")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apperr.Upstream(fmt.Sprintf("richpanel returned %d", resp.StatusCode), nil)
	}
	return data, nil
}
