package db

import "database/sql"

// DailyStats aggregates one region's dispatch prices for a local date.
type DailyStats struct {
	MinPrice      float64
	MaxPrice      float64
	AvgPrice      float64
	NegativeHours float64
}

// PriceRange is the min/max of a region's prices for a local date.
type PriceRange struct {
	Min float64
	Max float64
}

// InsertPrice records one dispatch price. Re-fetching the same interval is
// a no-op thanks to the (region, interval_time) uniqueness key.
func (d *DB) InsertPrice(region string, price float64, intervalTime string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sql.Exec(`
		INSERT OR IGNORE INTO price_history (region, price_mwh, interval_time, fetched_at)
		VALUES (?, ?, ?, ?)`,
		region, price, intervalTime, nowUTC())
	return err
}

// GetLatestPrice returns the most recent price and its interval_time.
// ok is false when the region has no history yet.
func (d *DB) GetLatestPrice(region string) (price float64, intervalTime string, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err = d.sql.QueryRow(`
		SELECT price_mwh, interval_time FROM price_history
		 WHERE region = ? ORDER BY interval_time DESC LIMIT 1`, region).
		Scan(&price, &intervalTime)
	if err == sql.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return price, intervalTime, true, nil
}

// GetPreviousPrice returns the second most recent price, the interval
// before the one just inserted, which is what spike detection compares
// against.
func (d *DB) GetPreviousPrice(region string) (price float64, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err = d.sql.QueryRow(`
		SELECT price_mwh FROM price_history
		 WHERE region = ? ORDER BY interval_time DESC LIMIT 1 OFFSET 1`, region).
		Scan(&price)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

// GetDailyRange returns min/max prices for a YYYY/MM/DD prefix, or nil if
// the day has no rows.
func (d *DB) GetDailyRange(region, datePrefix string) (*PriceRange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var min, max sql.NullFloat64
	err := d.sql.QueryRow(`
		SELECT MIN(price_mwh), MAX(price_mwh) FROM price_history
		 WHERE region = ? AND interval_time LIKE ?`,
		region, datePrefix+"%").Scan(&min, &max)
	if err != nil {
		return nil, err
	}
	if !min.Valid || !max.Valid {
		return nil, nil
	}
	return &PriceRange{Min: min.Float64, Max: max.Float64}, nil
}

// GetDailyStats aggregates a day's prices. negative_hours counts 5-minute
// intervals below zero, converted to hours. Returns nil when the day has
// no rows.
func (d *DB) GetDailyStats(region, datePrefix string) (*DailyStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var min, max, avg sql.NullFloat64
	var negCount sql.NullInt64
	var total int64
	err := d.sql.QueryRow(`
		SELECT MIN(price_mwh), MAX(price_mwh), AVG(price_mwh),
		       SUM(CASE WHEN price_mwh < 0 THEN 1 ELSE 0 END),
		       COUNT(*)
		  FROM price_history
		 WHERE region = ? AND interval_time LIKE ?`,
		region, datePrefix+"%").Scan(&min, &max, &avg, &negCount, &total)
	if err != nil {
		return nil, err
	}
	if total == 0 || !min.Valid || !max.Valid || !avg.Valid {
		return nil, nil
	}
	return &DailyStats{
		MinPrice:      min.Float64,
		MaxPrice:      max.Float64,
		AvgPrice:      avg.Float64,
		NegativeHours: float64(negCount.Int64) * 5.0 / 60.0,
	}, nil
}

// GetDailyPeakTime returns the interval_time of the day's highest price,
// or "" when the day has no rows.
func (d *DB) GetDailyPeakTime(region, datePrefix string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var t string
	err := d.sql.QueryRow(`
		SELECT interval_time FROM price_history
		 WHERE region = ? AND interval_time LIKE ?
		 ORDER BY price_mwh DESC LIMIT 1`,
		region, datePrefix+"%").Scan(&t)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t, nil
}
