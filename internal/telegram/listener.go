package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
)

const pollTimeoutSec = 60

// Listen long-polls getUpdates and dispatches each update to the given
// handlers. It blocks until ctx is cancelled; poll errors back off and
// retry rather than terminate.
func (c *Client) Listen(ctx context.Context, onMessage func(m Message), onCallback func(q CallbackQuery)) {
	logger.Info("TG", "Listener started")
	var offset int64

	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := c.GetUpdates(offset, pollTimeoutSec)
		if err != nil {
			logger.Error("TG", fmt.Sprintf("getUpdates: %v", err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			switch {
			case u.Message != nil:
				onMessage(*u.Message)
			case u.CallbackQuery != nil:
				onCallback(*u.CallbackQuery)
			}
		}
	}
}
