// Package telegram is a minimal Bot API client used for operational
// notifications. When no token or chat id is configured the client is
// disabled and every send is a silent no-op.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

func NewClient(token, chatID string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		chatID:  chatID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL exists for tests against a stand-in server.
func NewClientWithBaseURL(baseURL, token, chatID string) *Client {
	c := NewClient(token, chatID)
	c.baseURL = baseURL
	return c
}

// Enabled reports whether the client has credentials to send with.
func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

// SendMessage delivers text to the configured chat. Disabled clients
// return nil without making a request.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		return nil
	}
	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: sendMessage status %d: %s", resp.StatusCode, body)
	}
	return nil
}
