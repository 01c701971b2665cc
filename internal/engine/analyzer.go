package engine

import (
	"time"

	"github.com/Erio-Harrison/nem-price-bot/internal/bot"
	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/market"
	"github.com/Erio-Harrison/nem-price-bot/internal/nemweb"
)

// Alert condition tuning. Dedup windows stop a sustained high price from
// re-alerting every dispatch interval.
const (
	spikeDelta = 100 // $/MWh jump between consecutive intervals

	dedupShortMinutes = 30 // high, low, spike
	dedupLongMinutes  = 60 // all clear, forecast heads-up

	allClearLookbackMinutes = 180 // high must have fired this recently

	maxAlertsPerHour = 10
)

// Alert type tags recorded in the alert log. Dedup matches on these.
const (
	AlertHigh     = "high_price"
	AlertLow      = "low_price"
	AlertSpike    = "spike"
	AlertAllClear = "all_clear"
	AlertForecast = "forecast"
)

// PendingAlert is a fully rendered notification awaiting delivery.
type PendingAlert struct {
	ChatID    int64
	Text      string
	AlertType string
	Price     float64
	Region    string
}

// canAlert reports whether a notification of this type may go to this
// user now: not a duplicate within its window, and under the hourly cap.
func canAlert(d *db.DB, chatID int64, alertType string, windowMinutes int) (bool, error) {
	recent, err := d.WasAlertSentRecently(chatID, alertType, windowMinutes)
	if err != nil || recent {
		return false, err
	}
	n, err := d.CountAlertsThisHour(chatID)
	if err != nil {
		return false, err
	}
	return n < maxAlertsPerHour, nil
}

// Analyze evaluates freshly stored dispatch prices against every active
// user's thresholds and returns the notifications to send. Conditions
// are checked independently per user in the order spike, high, low, all
// clear, so one interval can produce several alert kinds for one user
// (a jump straight past the threshold is both a spike and a high).
func Analyze(d *db.DB, prices []nemweb.PriceRecord) ([]PendingAlert, error) {
	var pending []PendingAlert
	today := market.TodayPrefix()

	for _, p := range prices {
		users, err := d.GetActiveUsersByRegion(p.Region)
		if err != nil {
			return nil, err
		}
		if len(users) == 0 {
			continue
		}

		prev, hasPrev, err := d.GetPreviousPrice(p.Region)
		if err != nil {
			return nil, err
		}
		dailyRange, err := d.GetDailyRange(p.Region, today)
		if err != nil {
			return nil, err
		}

		for _, u := range users {
			alerts, err := evaluateUser(d, u, p, prev, hasPrev, dailyRange)
			if err != nil {
				return nil, err
			}
			pending = append(pending, alerts...)
		}
	}
	return pending, nil
}

func evaluateUser(d *db.DB, u db.User, p nemweb.PriceRecord, prev float64, hasPrev bool, dailyRange *db.PriceRange) ([]PendingAlert, error) {
	var out []PendingAlert
	delta := p.Price - prev
	if delta < 0 {
		delta = -delta
	}

	if hasPrev && delta > spikeDelta {
		ok, err := canAlert(d, u.ChatID, AlertSpike, dedupShortMinutes)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, PendingAlert{
				ChatID:    u.ChatID,
				Text:      bot.FormatSpikeAlert(p.Region, prev, p.Price),
				AlertType: AlertSpike,
				Price:     p.Price,
				Region:    p.Region,
			})
		}
	}

	// Threshold comparisons are strict. A price sitting exactly on the
	// high threshold is not a breach, and with a recent high alert it
	// qualifies for the all-clear below.
	if p.Price > u.HighAlert {
		ok, err := canAlert(d, u.ChatID, AlertHigh, dedupShortMinutes)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, PendingAlert{
				ChatID:    u.ChatID,
				Text:      bot.FormatHighAlert(p.Region, p.Price, u.HighAlert, dailyRange),
				AlertType: AlertHigh,
				Price:     p.Price,
				Region:    p.Region,
			})
		}
	}

	if p.Price < u.LowAlert {
		ok, err := canAlert(d, u.ChatID, AlertLow, dedupShortMinutes)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, PendingAlert{
				ChatID:    u.ChatID,
				Text:      bot.FormatLowAlert(p.Region, p.Price),
				AlertType: AlertLow,
				Price:     p.Price,
				Region:    p.Region,
			})
		}
	}

	if p.Price <= u.HighAlert {
		wasHigh, err := d.WasAlertSentRecently(u.ChatID, AlertHigh, allClearLookbackMinutes)
		if err != nil {
			return nil, err
		}
		if wasHigh {
			ok, err := canAlert(d, u.ChatID, AlertAllClear, dedupLongMinutes)
			if err != nil {
				return nil, err
			}
			if ok {
				var peak *float64
				if dailyRange != nil {
					peak = &dailyRange.Max
				}
				out = append(out, PendingAlert{
					ChatID:    u.ChatID,
					Text:      bot.FormatAllClear(p.Region, p.Price, peak),
					AlertType: AlertAllClear,
					Price:     p.Price,
					Region:    p.Region,
				})
			}
		}
	}

	return out, nil
}

// AnalyzeForecasts warns users whose high threshold the predispatch
// forecast crosses within the next hour. Every crossing point is
// checked per user; the 60 minute dedup window keeps repeats across
// rounds down once the first heads-up is logged.
func AnalyzeForecasts(d *db.DB, region string, currentPrice float64) ([]PendingAlert, error) {
	now := market.NowAEST()
	after := now.Format(market.IntervalLayout)
	before := now.Add(time.Hour).Format(market.IntervalLayout)

	forecasts, err := d.GetForecasts(region, after, before)
	if err != nil {
		return nil, err
	}
	if len(forecasts) == 0 {
		return nil, nil
	}

	users, err := d.GetActiveUsersByRegion(region)
	if err != nil {
		return nil, err
	}

	var pending []PendingAlert
	for _, fc := range forecasts {
		for _, u := range users {
			if fc.PriceMWh <= u.HighAlert {
				continue
			}
			ok, err := canAlert(d, u.ChatID, AlertForecast, dedupLongMinutes)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			pending = append(pending, PendingAlert{
				ChatID:    u.ChatID,
				Text:      bot.FormatForecastAlert(region, fc.PriceMWh, fc.ForecastTime, currentPrice),
				AlertType: AlertForecast,
				Price:     fc.PriceMWh,
				Region:    region,
			})
		}
	}
	return pending, nil
}
