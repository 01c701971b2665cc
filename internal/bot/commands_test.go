package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/telegram"
)

type sentMessage struct {
	chatID int64
	text   string
	rows   [][]telegram.Button
}

// fakeMessenger records outbound traffic instead of hitting the API.
type fakeMessenger struct {
	sent     []sentMessage
	edited   []sentMessage
	answered []string
	editErr  error
}

func (f *fakeMessenger) Send(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) SendWithKeyboard(chatID int64, text string, rows [][]telegram.Button) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, rows: rows})
	return nil
}

func (f *fakeMessenger) EditMessageText(chatID, messageID int64, text string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) AnswerCallback(callbackID string) error {
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeMessenger, *db.DB) {
	t.Helper()
	d, err := db.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	tg := &fakeMessenger{}
	return New(d, tg), tg, d
}

func msg(chatID int64, text string) telegram.Message {
	return telegram.Message{MessageID: 1, Text: text, Chat: telegram.Chat{ID: chatID}}
}

func TestStartSendsRegionKeyboard(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.HandleMessage(msg(42, "/start"))

	m := tg.last(t)
	if !strings.Contains(m.text, "Select your NEM region") {
		t.Errorf("welcome text = %q", m.text)
	}
	buttons := 0
	for _, row := range m.rows {
		buttons += len(row)
	}
	if buttons != 5 {
		t.Errorf("keyboard has %d buttons, want 5", buttons)
	}
}

func TestRegionCallbackRegistersUser(t *testing.T) {
	b, tg, d := newTestBot(t)
	b.HandleCallback(telegram.CallbackQuery{
		ID:      "cb1",
		From:    telegram.Chat{ID: 42},
		Data:    "region:NSW1",
		Message: &telegram.Message{MessageID: 9, Chat: telegram.Chat{ID: 42}},
	})

	u, err := d.GetUser(42)
	if err != nil || u == nil {
		t.Fatalf("user not registered: %v", err)
	}
	if u.Region != "NSW1" {
		t.Errorf("region = %q", u.Region)
	}
	if len(tg.answered) != 1 || tg.answered[0] != "cb1" {
		t.Errorf("callback not answered: %v", tg.answered)
	}
	if len(tg.edited) != 1 || !strings.Contains(tg.edited[0].text, "set up for NSW") {
		t.Errorf("keyboard message not edited: %+v", tg.edited)
	}
}

func TestRegionCallbackFallsBackToSendOnEditFailure(t *testing.T) {
	b, tg, _ := newTestBot(t)
	tg.editErr = errors.New("message to edit not found")

	b.HandleCallback(telegram.CallbackQuery{
		ID:      "cb1",
		From:    telegram.Chat{ID: 42},
		Data:    "region:VIC1",
		Message: &telegram.Message{MessageID: 9, Chat: telegram.Chat{ID: 42}},
	})

	if !strings.Contains(tg.last(t).text, "set up for VIC") {
		t.Errorf("fallback send missing: %+v", tg.sent)
	}
}

func TestRegionCallbackIgnoresInvalidRegion(t *testing.T) {
	b, tg, d := newTestBot(t)
	b.HandleCallback(telegram.CallbackQuery{ID: "cb1", From: telegram.Chat{ID: 42}, Data: "region:XXX"})

	if u, _ := d.GetUser(42); u != nil {
		t.Error("invalid region must not create a user")
	}
	if len(tg.sent) != 0 {
		t.Errorf("nothing should be sent: %+v", tg.sent)
	}
}

func TestPriceRequiresRegistration(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.HandleMessage(msg(42, "/price"))
	if !strings.Contains(tg.last(t).text, "/start") {
		t.Errorf("unregistered user should be told to /start: %q", tg.last(t).text)
	}
}

func TestPriceFormatsLatest(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertPrice("NSW1", 85.5, "2026/02/27 14:35:00"); err != nil {
		t.Fatal(err)
	}

	b.HandleMessage(msg(42, "/price"))
	got := tg.last(t).text
	if !strings.Contains(got, "NSW Spot Price") || !strings.Contains(got, "$85.50/MWh") {
		t.Errorf("price reply = %q", got)
	}
}

func TestPriceNoData(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}
	b.HandleMessage(msg(42, "/price"))
	if !strings.Contains(tg.last(t).text, "No price data yet") {
		t.Errorf("reply = %q", tg.last(t).text)
	}
}

func TestAlertHighValidation(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}

	b.HandleMessage(msg(42, "/alert high 20000"))
	if !strings.Contains(tg.last(t).text, "between $50 and $15000") {
		t.Errorf("out-of-range reply = %q", tg.last(t).text)
	}

	b.HandleMessage(msg(42, "/alert high abc"))
	if !strings.Contains(tg.last(t).text, "not a number") {
		t.Errorf("non-numeric reply = %q", tg.last(t).text)
	}

	b.HandleMessage(msg(42, "/alert high 300"))
	if !strings.Contains(tg.last(t).text, "set to $300/MWh") {
		t.Errorf("success reply = %q", tg.last(t).text)
	}
	u, _ := d.GetUser(42)
	if u.HighAlert != 300 {
		t.Errorf("high alert = %v", u.HighAlert)
	}
}

func TestAlertLowMustStayBelowHigh(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}

	// Defaults are high 150, low 0.
	b.HandleMessage(msg(42, "/alert low 50"))
	got := tg.last(t).text
	if !strings.Contains(got, "set to $50/MWh") {
		t.Errorf("low 50 should be accepted with high 150: %q", got)
	}

	b.HandleMessage(msg(42, "/alert high 50"))
	if !strings.Contains(tg.last(t).text, "above your low threshold") {
		t.Errorf("high equal to low should be rejected: %q", tg.last(t).text)
	}

	b.HandleMessage(msg(42, "/alert low 200"))
	if !strings.Contains(tg.last(t).text, "between $-1000 and $50") {
		t.Errorf("low above cap should be rejected: %q", tg.last(t).text)
	}
}

func TestAlertOnOff(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}

	b.HandleMessage(msg(42, "/alert off"))
	if !strings.Contains(tg.last(t).text, "paused") {
		t.Errorf("reply = %q", tg.last(t).text)
	}
	if u, _ := d.GetUser(42); u.IsActive {
		t.Error("user should be inactive")
	}

	b.HandleMessage(msg(42, "/alert on"))
	if u, _ := d.GetUser(42); !u.IsActive {
		t.Error("user should be active again")
	}
}

func TestAlertNoArgsShowsSettings(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "NSW1"); err != nil {
		t.Fatal(err)
	}
	b.HandleMessage(msg(42, "/alert"))
	got := tg.last(t).text
	if !strings.Contains(got, "High: $150/MWh") || !strings.Contains(got, "Low: $0/MWh") {
		t.Errorf("settings reply = %q", got)
	}
}

func TestStatusShowsSettings(t *testing.T) {
	b, tg, d := newTestBot(t)
	if err := d.UpsertUser(42, "SA1"); err != nil {
		t.Fatal(err)
	}
	b.HandleMessage(msg(42, "/status"))
	got := tg.last(t).text
	if !strings.Contains(got, "Region: SA") || !strings.Contains(got, "🔔 Active") {
		t.Errorf("status reply = %q", got)
	}
	if !strings.Contains(got, "Alerts this week: 0") {
		t.Errorf("status missing weekly count: %q", got)
	}
}

func TestCommandWithBotSuffix(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.HandleMessage(msg(42, "/help@nem_price_bot"))
	if !strings.Contains(tg.last(t).text, "NEM Price Bot — Help") {
		t.Errorf("suffixed command not routed: %q", tg.last(t).text)
	}
}

func TestNonCommandTextIgnored(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.HandleMessage(msg(42, "hello there"))
	if len(tg.sent) != 0 {
		t.Errorf("plain text should be ignored: %+v", tg.sent)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.HandleMessage(msg(42, "/frobnicate"))
	if !strings.Contains(tg.last(t).text, "Unknown command") {
		t.Errorf("reply = %q", tg.last(t).text)
	}
}
