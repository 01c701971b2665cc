package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
	"github.com/Erio-Harrison/nem-price-bot/internal/market"
	"github.com/Erio-Harrison/nem-price-bot/internal/telegram"
)

// Threshold bounds for /alert. High must stay above low so the two
// alerts cannot overlap.
const (
	minHighThreshold = 50
	maxHighThreshold = 15000
	minLowThreshold  = -1000
	maxLowThreshold  = 50
)

const forecastWindowHours = 6

// Messenger is the slice of the Telegram client the command handlers
// need. Tests substitute a recorder.
type Messenger interface {
	Send(chatID int64, text string) error
	SendWithKeyboard(chatID int64, text string, rows [][]telegram.Button) error
	EditMessageText(chatID, messageID int64, text string) error
	AnswerCallback(callbackID string) error
}

// Bot routes inbound Telegram updates to command handlers.
type Bot struct {
	DB *db.DB
	TG Messenger
}

// New builds the command router.
func New(d *db.DB, tg Messenger) *Bot {
	return &Bot{DB: d, TG: tg}
}

func regionKeyboard() [][]telegram.Button {
	var rows [][]telegram.Button
	var row []telegram.Button
	for _, r := range market.Regions {
		row = append(row, telegram.Button{Text: market.Display(r), CallbackData: "region:" + r})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// HandleMessage dispatches one inbound chat message.
func (b *Bot) HandleMessage(m telegram.Message) {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]
	chatID := m.Chat.ID

	var err error
	switch cmd {
	case "/start":
		err = b.TG.SendWithKeyboard(chatID, WelcomeMessage(), regionKeyboard())
	case "/price":
		err = b.handlePrice(chatID)
	case "/forecast":
		err = b.handleForecast(chatID)
	case "/alert":
		err = b.handleAlert(chatID, args)
	case "/status":
		err = b.handleStatus(chatID)
	case "/region":
		err = b.TG.SendWithKeyboard(chatID, "Select your NEM region:", regionKeyboard())
	case "/help":
		err = b.TG.Send(chatID, HelpMessage())
	case "/about":
		err = b.TG.Send(chatID, AboutMessage())
	default:
		err = b.TG.Send(chatID, "Unknown command. Try /help.")
	}
	if err != nil {
		logger.Error("BOT", fmt.Sprintf("%s for chat %d: %v", cmd, chatID, err))
	}
}

// HandleCallback processes an inline keyboard press. Only region
// selection buttons exist.
func (b *Bot) HandleCallback(q telegram.CallbackQuery) {
	region, ok := strings.CutPrefix(q.Data, "region:")
	if !ok || !market.ValidRegion(region) {
		return
	}
	chatID := q.From.ID

	if err := b.DB.UpsertUser(chatID, region); err != nil {
		logger.Error("BOT", fmt.Sprintf("upsert user %d: %v", chatID, err))
		return
	}
	if err := b.TG.AnswerCallback(q.ID); err != nil {
		logger.Warn("BOT", fmt.Sprintf("answer callback: %v", err))
	}

	u, err := b.DB.GetUser(chatID)
	if err != nil || u == nil {
		logger.Error("BOT", fmt.Sprintf("load user %d after region change: %v", chatID, err))
		return
	}
	confirm := ConfirmRegion(u.Region, u.HighAlert, u.LowAlert)

	// Replace the keyboard message in place; fall back to a fresh
	// message if it was deleted or is too old to edit.
	if q.Message != nil {
		if err := b.TG.EditMessageText(chatID, q.Message.MessageID, confirm); err == nil {
			return
		}
	}
	if err := b.TG.Send(chatID, confirm); err != nil {
		logger.Error("BOT", fmt.Sprintf("confirm region for %d: %v", chatID, err))
	}
}

// requireUser loads the user, prompting /start when absent. The bool
// reports whether a user was found.
func (b *Bot) requireUser(chatID int64) (*db.User, bool, error) {
	u, err := b.DB.GetUser(chatID)
	if err != nil {
		return nil, false, err
	}
	if u == nil {
		return nil, false, b.TG.Send(chatID, "Please run /start first to pick your region.")
	}
	return u, true, nil
}

func (b *Bot) handlePrice(chatID int64) error {
	u, ok, err := b.requireUser(chatID)
	if !ok {
		return err
	}

	price, intervalTime, found, err := b.DB.GetLatestPrice(u.Region)
	if err != nil {
		return err
	}
	if !found {
		return b.TG.Send(chatID, "No price data yet. Try again in a few minutes.")
	}

	now := market.NowAEST()
	dailyRange, err := b.DB.GetDailyRange(u.Region, market.TodayPrefix())
	if err != nil {
		return err
	}
	age := market.IntervalAgeMinutes(intervalTime, now)
	return b.TG.Send(chatID, FormatPriceResponse(u.Region, price, intervalTime, dailyRange, age))
}

func (b *Bot) handleForecast(chatID int64) error {
	u, ok, err := b.requireUser(chatID)
	if !ok {
		return err
	}

	now := market.NowAEST()
	after := now.Format(market.IntervalLayout)
	before := now.Add(forecastWindowHours * time.Hour).Format(market.IntervalLayout)
	forecasts, err := b.DB.GetForecasts(u.Region, after, before)
	if err != nil {
		return err
	}
	return b.TG.Send(chatID, FormatForecastResponse(u.Region, forecasts))
}

func (b *Bot) handleStatus(chatID int64) error {
	u, ok, err := b.requireUser(chatID)
	if !ok {
		return err
	}

	state := "🔔 Active"
	if !u.IsActive {
		state = "🔕 Paused (/alert on to resume)"
	}
	weekCount, err := b.DB.CountAlertsThisWeek(chatID)
	if err != nil {
		return err
	}
	return b.TG.Send(chatID, fmt.Sprintf("⚙️ Your Settings\n\n"+
		"Region: %s\n"+
		"High price alert: $%.0f/MWh\n"+
		"Low price alert: $%.0f/MWh\n"+
		"Notifications: %s\n"+
		"Alerts this week: %d",
		market.Display(u.Region), u.HighAlert, u.LowAlert, state, weekCount))
}

func (b *Bot) handleAlert(chatID int64, args []string) error {
	u, ok, err := b.requireUser(chatID)
	if !ok {
		return err
	}

	if len(args) == 0 {
		return b.TG.Send(chatID, fmt.Sprintf("Current alert thresholds:\n"+
			"• High: $%.0f/MWh\n"+
			"• Low: $%.0f/MWh\n\n"+
			"Change them with:\n"+
			"/alert high 200\n"+
			"/alert low -20\n"+
			"/alert off | /alert on",
			u.HighAlert, u.LowAlert))
	}

	switch strings.ToLower(args[0]) {
	case "on":
		if err := b.DB.SetActive(chatID, true); err != nil {
			return err
		}
		return b.TG.Send(chatID, "🔔 Notifications resumed.")
	case "off":
		if err := b.DB.SetActive(chatID, false); err != nil {
			return err
		}
		return b.TG.Send(chatID, "🔕 Notifications paused. /alert on to resume.")
	case "high":
		if len(args) < 2 {
			return b.TG.Send(chatID, "Usage: /alert high 200")
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return b.TG.Send(chatID, fmt.Sprintf("%q is not a number. Usage: /alert high 200", args[1]))
		}
		if v < minHighThreshold || v > maxHighThreshold {
			return b.TG.Send(chatID, fmt.Sprintf("High threshold must be between $%d and $%d/MWh.",
				minHighThreshold, maxHighThreshold))
		}
		if v <= u.LowAlert {
			return b.TG.Send(chatID, fmt.Sprintf("High threshold must be above your low threshold ($%.0f/MWh).", u.LowAlert))
		}
		if err := b.DB.UpdateHighAlert(chatID, v); err != nil {
			return err
		}
		return b.TG.Send(chatID, fmt.Sprintf("✅ High price alert set to $%.0f/MWh.", v))
	case "low":
		if len(args) < 2 {
			return b.TG.Send(chatID, "Usage: /alert low -20")
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return b.TG.Send(chatID, fmt.Sprintf("%q is not a number. Usage: /alert low -20", args[1]))
		}
		if v < minLowThreshold || v > maxLowThreshold {
			return b.TG.Send(chatID, fmt.Sprintf("Low threshold must be between $%d and $%d/MWh.",
				minLowThreshold, maxLowThreshold))
		}
		if v >= u.HighAlert {
			return b.TG.Send(chatID, fmt.Sprintf("Low threshold must be below your high threshold ($%.0f/MWh).", u.HighAlert))
		}
		if err := b.DB.UpdateLowAlert(chatID, v); err != nil {
			return err
		}
		return b.TG.Send(chatID, fmt.Sprintf("✅ Low price alert set to $%.0f/MWh.", v))
	default:
		return b.TG.Send(chatID, "Usage: /alert high 200 | /alert low -20 | /alert on | /alert off")
	}
}
