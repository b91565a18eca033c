// Package telegram wraps the Bot API sendMessage call. The client performs
// exactly one outbound call per Send; retry, backoff, and pacing are owned by
// the dispatch worker, which knows the total call volume per invocation.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIBaseURL  = "https://api.telegram.org"
	defaultSendTimeout = 10 * time.Second
)

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client sends Telegram messages through the Bot API.
type Client struct {
	client *resty.Client
	token  string
}

func NewClient(token string) (*Client, error) {
	client := resty.New()
	client.SetBaseURL(defaultAPIBaseURL)
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewClientWith(token, client)
}

func NewClientWith(token string, client *resty.Client) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.BaseURL == "" {
		client.SetBaseURL(defaultAPIBaseURL)
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &Client{client: client, token: token}, nil
}

// Send delivers one HTML-formatted message to chatID. Any transport error,
// non-2xx status, or ok=false body is a send failure.
func (c *Client) Send(ctx context.Context, chatID string, text string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("telegram client is not initialized")
	}
	if strings.TrimSpace(chatID) == "" {
		return fmt.Errorf("chat id is required")
	}
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	reqBody := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	var respBody sendMessageResponse
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&respBody).
		Post(fmt.Sprintf("/bot%s/sendMessage", c.token))
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("telegram returned status %d: %s", statusCode, failureDescription(respBody))
	}
	if !respBody.OK {
		return fmt.Errorf("telegram rejected message: %s", failureDescription(respBody))
	}

	return nil
}

func failureDescription(resp sendMessageResponse) string {
	if desc := strings.TrimSpace(resp.Description); desc != "" {
		return desc
	}
	return "no description"
}
