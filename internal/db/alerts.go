package db

import "time"

// Alert retention windows.
const (
	priceRetentionDays    = 90
	forecastRetentionDays = 7
	alertLogRetentionDays = 90
)

func cutoff(ago time.Duration) string {
	return time.Now().UTC().Add(-ago).Format(time.RFC3339)
}

// LogAlert records a successfully delivered notification.
func (d *DB) LogAlert(chatID int64, alertType string, price float64, region string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sql.Exec(`
		INSERT INTO alert_log (chat_id, alert_type, price_mwh, region, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		chatID, alertType, price, region, nowUTC())
	return err
}

// WasAlertSentRecently reports whether an alert of this type went to the
// user within the last n minutes. This is the dedup window check.
func (d *DB) WasAlertSentRecently(chatID int64, alertType string, minutes int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	err := d.sql.QueryRow(`
		SELECT COUNT(*) FROM alert_log
		 WHERE chat_id = ? AND alert_type = ? AND sent_at > ?`,
		chatID, alertType, cutoff(time.Duration(minutes)*time.Minute)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *DB) countAlertsSince(chatID int64, ago time.Duration) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	err := d.sql.QueryRow(
		"SELECT COUNT(*) FROM alert_log WHERE chat_id = ? AND sent_at > ?",
		chatID, cutoff(ago)).Scan(&count)
	return count, err
}

// CountAlertsThisHour backs the per-user hourly rate cap.
func (d *DB) CountAlertsThisHour(chatID int64) (int64, error) {
	return d.countAlertsSince(chatID, time.Hour)
}

// CountAlertsLast24h backs the daily-summary "alerts sent today" line.
func (d *DB) CountAlertsLast24h(chatID int64) (int64, error) {
	return d.countAlertsSince(chatID, 24*time.Hour)
}

// CountAlertsThisWeek backs the /status report.
func (d *DB) CountAlertsThisWeek(chatID int64) (int64, error) {
	return d.countAlertsSince(chatID, 7*24*time.Hour)
}

// CleanupOldRecords applies all three retention cut-offs: 90 days of price
// history and alert log, 7 days of forecasts.
func (d *DB) CleanupOldRecords() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cutPrice := cutoff(priceRetentionDays * 24 * time.Hour)
	cutAlert := cutoff(alertLogRetentionDays * 24 * time.Hour)
	cut7 := cutoff(forecastRetentionDays * 24 * time.Hour)
	if _, err := d.sql.Exec("DELETE FROM price_history WHERE fetched_at < ?", cutPrice); err != nil {
		return err
	}
	if _, err := d.sql.Exec("DELETE FROM alert_log WHERE sent_at < ?", cutAlert); err != nil {
		return err
	}
	if _, err := d.sql.Exec("DELETE FROM forecast WHERE fetched_at < ?", cut7); err != nil {
		return err
	}
	return nil
}
