package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
	"github.com/Erio-Harrison/nem-price-bot/internal/telegram"
)

// Sink delivers one rendered notification. *telegram.Client satisfies
// it; tests use a recorder.
type Sink interface {
	Send(chatID int64, text string) error
}

// Pause between consecutive sends so a large recipient list does not
// trip Telegram's rate limiter.
const sendPacing = 50 * time.Millisecond

// SendAlerts delivers pending alerts in order. Each successful send is
// logged for dedup; a Forbidden response deactivates the user; any
// other send error is logged and skipped. The hourly cap is re-checked
// here because the analyzer batch may contain several alerts for one
// user.
func SendAlerts(d *db.DB, sink Sink, pending []PendingAlert) {
	for i, a := range pending {
		n, err := d.CountAlertsThisHour(a.ChatID)
		if err != nil {
			logger.Error("NOTIFY", fmt.Sprintf("count alerts for %d: %v", a.ChatID, err))
			continue
		}
		if n >= maxAlertsPerHour {
			logger.Warn("NOTIFY", fmt.Sprintf("chat %d hit hourly cap, dropping %s", a.ChatID, a.AlertType))
			continue
		}

		if err := sink.Send(a.ChatID, a.Text); err != nil {
			if errors.Is(err, telegram.ErrForbidden) {
				logger.Warn("NOTIFY", fmt.Sprintf("chat %d blocked the bot, deactivating", a.ChatID))
				if dbErr := d.SetActive(a.ChatID, false); dbErr != nil {
					logger.Error("NOTIFY", fmt.Sprintf("deactivate %d: %v", a.ChatID, dbErr))
				}
			} else {
				logger.Error("NOTIFY", fmt.Sprintf("send %s to %d: %v", a.AlertType, a.ChatID, err))
			}
			continue
		}

		if err := d.LogAlert(a.ChatID, a.AlertType, a.Price, a.Region); err != nil {
			logger.Error("NOTIFY", fmt.Sprintf("log alert for %d: %v", a.ChatID, err))
		}
		logger.Info("NOTIFY", fmt.Sprintf("%s sent to %d (%s $%.2f)", a.AlertType, a.ChatID, a.Region, a.Price))

		if i < len(pending)-1 {
			time.Sleep(sendPacing)
		}
	}
}
