package db

// ForecastPoint is one pre-dispatch forecast interval.
type ForecastPoint struct {
	ForecastTime string
	PriceMWh     float64
}

// InsertForecast records one pre-dispatch forecast. The same
// (region, forecast_time, published_at) triple is ignored on re-fetch.
func (d *DB) InsertForecast(region, forecastTime string, price float64, publishedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sql.Exec(`
		INSERT OR IGNORE INTO forecast (region, forecast_time, price_mwh, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		region, forecastTime, price, publishedAt, nowUTC())
	return err
}

// GetForecasts returns forecasts with after < forecast_time <= before.
// When several publications cover the same forecast_time, only the latest
// published_at survives: the scan is ordered published_at DESC within each
// slot and the first row per slot wins.
func (d *DB) GetForecasts(region, after, before string) ([]ForecastPoint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := d.sql.Query(`
		SELECT forecast_time, price_mwh FROM forecast
		 WHERE region = ? AND forecast_time > ? AND forecast_time <= ?
		 ORDER BY forecast_time, published_at DESC`,
		region, after, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ForecastPoint
	seen := make(map[string]bool)
	for rows.Next() {
		var p ForecastPoint
		if err := rows.Scan(&p.ForecastTime, &p.PriceMWh); err != nil {
			return nil, err
		}
		if seen[p.ForecastTime] {
			continue
		}
		seen[p.ForecastTime] = true
		points = append(points, p)
	}
	return points, rows.Err()
}
