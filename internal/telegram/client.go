package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrForbidden marks a send rejected because the user blocked the bot.
// The notifier deactivates the user on this; every other error is treated
// as transient.
var ErrForbidden = errors.New("telegram: forbidden")

// Client talks to the Telegram Bot API over plain HTTPS.
type Client struct {
	token string
	http  *http.Client

	// Overridable for tests.
	BaseURL string
}

// NewClient builds a Bot API client for the given token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		http:    &http.Client{Timeout: 90 * time.Second}, // above the long-poll timeout
		BaseURL: "https://api.telegram.org",
	}
}

func (c *Client) call(method string, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.token, method)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !api.Ok {
		if api.ErrorCode == http.StatusForbidden || strings.Contains(api.Description, "Forbidden") {
			return nil, fmt.Errorf("%s: %s: %w", method, api.Description, ErrForbidden)
		}
		return nil, fmt.Errorf("%s: %s (code %d)", method, api.Description, api.ErrorCode)
	}
	return &api, nil
}

// Send delivers a plain-text message to a chat.
func (c *Client) Send(chatID int64, text string) error {
	_, err := c.call("sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	return err
}

// SendWithKeyboard delivers a message with inline buttons. Each inner
// slice is one keyboard row.
func (c *Client) SendWithKeyboard(chatID int64, text string, rows [][]Button) error {
	_, err := c.call("sendMessage", map[string]interface{}{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": map[string]interface{}{"inline_keyboard": rows},
	})
	return err
}

// EditMessageText replaces the text of an existing message, dropping any
// inline keyboard it carried.
func (c *Client) EditMessageText(chatID, messageID int64, text string) error {
	_, err := c.call("editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	})
	return err
}

// AnswerCallback acknowledges a button press so the client stops showing
// its loading spinner.
func (c *Client) AnswerCallback(callbackID string) error {
	_, err := c.call("answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	})
	return err
}

// GetUpdates long-polls for updates past offset.
func (c *Client) GetUpdates(offset int64, timeoutSec int) ([]Update, error) {
	api, err := c.call("getUpdates", map[string]interface{}{
		"offset":  offset,
		"timeout": timeoutSec,
	})
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(api.Result, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates: decode result: %w", err)
	}
	return updates, nil
}
