package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const baseURL = "https://api.weather.bom.gov.au/v1"

// BOM geohashes for the NEM region capital cities. Capital-city weather is
// a fair proxy for region-wide solar generation.
var regionGeohash = map[string]string{
	"NSW1": "r3gx2f", // Sydney
	"VIC1": "r1r0fs", // Melbourne
	"QLD1": "r7hg1c", // Brisbane
	"SA1":  "r1f94e", // Adelaide
	"TAS1": "r228fh", // Hobart
}

// SolarPotential classifies tomorrow's rooftop-solar outlook.
type SolarPotential int

const (
	SolarExcellent SolarPotential = iota
	SolarGood
	SolarModerate
	SolarPoor
)

// Emoji returns the forecast icon for a solar class.
func (s SolarPotential) Emoji() string {
	switch s {
	case SolarExcellent:
		return "☀️"
	case SolarGood:
		return "🌤️"
	case SolarModerate:
		return "⛅"
	default:
		return "🌧️"
	}
}

// Label returns the one-line description for a solar class.
func (s SolarPotential) Label() string {
	switch s {
	case SolarExcellent:
		return "Excellent solar day"
	case SolarGood:
		return "Good solar day"
	case SolarModerate:
		return "Moderate solar"
	default:
		return "Poor solar day"
	}
}

func classifySolar(icon string) SolarPotential {
	switch icon {
	case "sunny", "clear":
		return SolarExcellent
	case "mostly_sunny":
		return SolarGood
	case "partly_cloudy", "hazy":
		return SolarModerate
	default:
		return SolarPoor
	}
}

// Forecast is tomorrow's outlook for a region capital.
type Forecast struct {
	TempMax     *float64
	Description string
	Solar       SolarPotential
}

// Client fetches daily forecasts from the BOM public API.
type Client struct {
	http *http.Client

	// Overridable for tests.
	BaseURL string
}

// NewClient builds a BOM client with a 30s request timeout.
func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
	}
}

// Tomorrow returns tomorrow's forecast for a region, or nil when the
// region is unknown or the API returns too few days. Failures here are
// never fatal; the daily summary just omits the outlook.
func (c *Client) Tomorrow(ctx context.Context, region string) (*Forecast, error) {
	geohash, ok := regionGeohash[region]
	if !ok {
		return nil, nil
	}

	url := fmt.Sprintf("%s/locations/%s/forecasts/daily", c.BaseURL, geohash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BOM %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			TempMax        *float64 `json:"temp_max"`
			IconDescriptor *string  `json:"icon_descriptor"`
			ShortText      *string  `json:"short_text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	// Index 0 is today, index 1 tomorrow.
	if len(body.Data) < 2 {
		return nil, nil
	}
	day := body.Data[1]
	fc := &Forecast{TempMax: day.TempMax}
	if day.ShortText != nil {
		fc.Description = *day.ShortText
	}
	icon := ""
	if day.IconDescriptor != nil {
		icon = *day.IconDescriptor
	}
	fc.Solar = classifySolar(icon)
	return fc, nil
}
