package db

import (
	"database/sql"
	"time"
)

// User is a Telegram subscriber with alert thresholds for one region.
type User struct {
	ChatID    int64
	Region    string
	HighAlert float64
	LowAlert  float64
	IsActive  bool
	CreatedAt string
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UpsertUser creates the user on first region selection, or updates the
// region on later ones. Alert thresholds survive a region change.
func (d *DB) UpsertUser(chatID int64, region string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := nowUTC()
	_, err := d.sql.Exec(`
		INSERT INTO users (chat_id, region, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET region=excluded.region, updated_at=excluded.updated_at`,
		chatID, region, now, now)
	return err
}

// GetUser returns the user, or nil if they never ran /start.
func (d *DB) GetUser(chatID int64) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var u User
	var active int
	err := d.sql.QueryRow(`
		SELECT chat_id, region, high_alert, low_alert, is_active, created_at
		  FROM users WHERE chat_id = ?`, chatID).
		Scan(&u.ChatID, &u.Region, &u.HighAlert, &u.LowAlert, &active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsActive = active != 0
	return &u, nil
}

// UpdateHighAlert sets the high-price threshold.
func (d *DB) UpdateHighAlert(chatID int64, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sql.Exec("UPDATE users SET high_alert = ?, updated_at = ? WHERE chat_id = ?",
		value, nowUTC(), chatID)
	return err
}

// UpdateLowAlert sets the low-price threshold.
func (d *DB) UpdateLowAlert(chatID int64, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sql.Exec("UPDATE users SET low_alert = ?, updated_at = ? WHERE chat_id = ?",
		value, nowUTC(), chatID)
	return err
}

// SetActive pauses or resumes a user's notifications.
func (d *DB) SetActive(chatID int64, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := 0
	if active {
		v = 1
	}
	_, err := d.sql.Exec("UPDATE users SET is_active = ?, updated_at = ? WHERE chat_id = ?",
		v, nowUTC(), chatID)
	return err
}

// GetActiveUsersByRegion returns every active subscriber in a region.
func (d *DB) GetActiveUsersByRegion(region string) ([]User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := d.sql.Query(`
		SELECT chat_id, region, high_alert, low_alert, created_at
		  FROM users WHERE region = ? AND is_active = 1`, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u := User{IsActive: true}
		if err := rows.Scan(&u.ChatID, &u.Region, &u.HighAlert, &u.LowAlert, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
