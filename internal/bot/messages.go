package bot

import (
	"fmt"
	"strings"

	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/market"
	"github.com/Erio-Harrison/nem-price-bot/internal/weather"
)

// PriceLevel classifies a spot price into (emoji, label, suggestion) for
// message bodies.
func PriceLevel(price float64) (emoji, label, suggestion string) {
	switch {
	case price < 0:
		return "🟢💰", "Negative", "Charge from grid. Run heavy appliances. You're being paid to use power."
	case price < 50:
		return "🟢", "Low", "Good time to charge battery from grid."
	case price < 100:
		return "🟡", "Normal", "No action needed — prices are within typical range."
	case price < 200:
		return "🟠", "Elevated", "Consider switching to battery power."
	case price < 500:
		return "🔴", "High", "Discharge battery. Minimise grid usage."
	default:
		return "🔴🔥", "Extreme", "Discharge and export to grid immediately. Pause heavy appliances."
	}
}

// timeShort reduces "2026/02/27 14:35:00" to "14:35".
func timeShort(intervalTime string) string {
	if len(intervalTime) >= 16 {
		return intervalTime[11:16]
	}
	return intervalTime
}

func rangeLine(r *db.PriceRange) string {
	if r == nil {
		return "No data for today yet."
	}
	return fmt.Sprintf("Today's range: $%.0f ~ $%.0f", r.Min, r.Max)
}

// FormatPriceResponse renders the /price reply.
func FormatPriceResponse(region string, price float64, intervalTime string, dailyRange *db.PriceRange, ageMinutes int64) string {
	emoji, label, suggestion := PriceLevel(price)
	ageStr := ""
	switch {
	case ageMinutes < 0:
	case ageMinutes <= 1:
		ageStr = " (just now)"
	default:
		ageStr = fmt.Sprintf(" (%d min ago)", ageMinutes)
	}
	stale := ""
	if ageMinutes > 5 {
		stale = " ⚠️"
	}
	return fmt.Sprintf("⚡ %s Spot Price\n\n$%.2f/MWh %s %s\n\n%s\n\nUpdated: %s AEST%s%s | %s",
		market.Display(region), price, emoji, label, suggestion,
		timeShort(intervalTime), ageStr, stale, rangeLine(dailyRange))
}

// FormatForecastResponse renders the /forecast reply.
func FormatForecastResponse(region string, forecasts []db.ForecastPoint) string {
	if len(forecasts) == 0 {
		return fmt.Sprintf("📈 %s Price Forecast\n\nNo forecast data available.", market.Display(region))
	}
	lines := []string{fmt.Sprintf("📈 %s Price Forecast\n", market.Display(region))}
	peakPrice := forecasts[0].PriceMWh
	peakTime := forecasts[0].ForecastTime
	for _, f := range forecasts {
		if f.PriceMWh > peakPrice {
			peakPrice = f.PriceMWh
			peakTime = f.ForecastTime
		}
	}
	for _, f := range forecasts {
		emoji, _, _ := PriceLevel(f.PriceMWh)
		marker := ""
		if f.ForecastTime == peakTime {
			marker = "  ← Peak expected"
		}
		lines = append(lines, fmt.Sprintf("%s  $%.0f/MWh   %s%s", timeShort(f.ForecastTime), f.PriceMWh, emoji, marker))
	}
	lines = append(lines, fmt.Sprintf("\n💡 Peak expected around %s.\n\n⚠️ Forecasts are estimates and may change.", timeShort(peakTime)))
	return strings.Join(lines, "\n")
}

// FormatHighAlert renders a high-price breach notification.
func FormatHighAlert(region string, price, threshold float64, dailyRange *db.PriceRange) string {
	rangeStr := ""
	if dailyRange != nil {
		rangeStr = fmt.Sprintf("Today's range: $%.0f ~ $%.0f", dailyRange.Min, dailyRange.Max)
	}
	return fmt.Sprintf("⚡ HIGH PRICE — %s\n\n"+
		"Current price: $%.2f/MWh 🔴\n"+
		"Your threshold: $%.0f/MWh\n\n"+
		"💡 What to do:\n"+
		"→ Switch battery to discharge / export mode\n"+
		"→ Avoid running dishwasher, dryer, pool pump\n"+
		"→ If on a VPP, ensure export is enabled\n\n%s",
		market.Display(region), price, threshold, rangeStr)
}

// FormatLowAlert renders a low or negative price notification.
func FormatLowAlert(region string, price float64) string {
	label := "LOW PRICE"
	paid := ""
	if price < 0 {
		label = "NEGATIVE PRICE"
		paid = "→ You're being PAID to use electricity!"
	}
	return fmt.Sprintf("🔋 %s — %s\n\n"+
		"Current price: $%.2f/MWh 🟢💰\n\n"+
		"💡 What to do:\n"+
		"→ Switch battery to charge from grid\n"+
		"→ Run washing machine, dryer, dishwasher\n%s",
		label, market.Display(region), price, paid)
}

// FormatSpikeAlert renders an abrupt price jump notification.
func FormatSpikeAlert(region string, prev, current float64) string {
	return fmt.Sprintf("⚠️ PRICE SPIKE — %s\n\n"+
		"Price jumped from $%.0f → $%.0f/MWh in 5 minutes!\n"+
		"This is unusual and may indicate a supply event.\n\n"+
		"💡 Switch to battery power immediately if you haven't already.",
		market.Display(region), prev, current)
}

// FormatForecastAlert renders a heads-up for a forecast threshold breach.
func FormatForecastAlert(region string, forecastPrice float64, forecastTime string, currentPrice float64) string {
	return fmt.Sprintf("📢 HEADS UP — %s\n\n"+
		"Prices forecast to reach $%.0f+/MWh around %s.\n"+
		"Current price: $%.0f/MWh 🟡\n\n"+
		"💡 Prepare now:\n"+
		"→ Ensure battery is fully charged\n"+
		"→ Set battery to discharge when peak begins\n"+
		"→ Delay any heavy appliance usage",
		market.Display(region), forecastPrice, timeShort(forecastTime), currentPrice)
}

// FormatAllClear renders the back-to-normal notification after a high.
func FormatAllClear(region string, price float64, peak *float64) string {
	peakStr := ""
	if peak != nil {
		peakStr = fmt.Sprintf("\nPeak reached: $%.0f/MWh", *peak)
	}
	emoji, _, _ := PriceLevel(price)
	return fmt.Sprintf("✅ PRICES NORMAL — %s\n\n"+
		"Price has dropped back to $%.2f/MWh %s\n%s",
		market.Display(region), price, emoji, peakStr)
}

// FormatDailySummary renders the 21:00 daily roll-up for one user.
func FormatDailySummary(region, dateDisplay string, stats *db.DailyStats, peakTime string, wx *weather.Forecast, alertsToday int64) string {
	lines := []string{fmt.Sprintf("📊 Daily Summary — %s — %s\n", market.Display(region), dateDisplay)}

	if stats != nil {
		lines = append(lines, fmt.Sprintf("Price range: $%.0f ~ $%.0f/MWh", stats.MinPrice, stats.MaxPrice))
		lines = append(lines, fmt.Sprintf("Average price: $%.0f/MWh", stats.AvgPrice))
		if stats.NegativeHours > 0 {
			lines = append(lines, fmt.Sprintf("Negative price hours: %.1fh", stats.NegativeHours))
		}
		if peakTime != "" {
			lines = append(lines, fmt.Sprintf("Peak: $%.0f/MWh at %s AEST", stats.MaxPrice, timeShort(peakTime)))
		}
	} else {
		lines = append(lines, "No price data recorded today.")
	}

	lines = append(lines, fmt.Sprintf("\nAlerts sent today: %d", alertsToday))

	if wx != nil {
		tempStr := ""
		if wx.TempMax != nil {
			tempStr = fmt.Sprintf(", %.0f°C", *wx.TempMax)
		}
		lines = append(lines, fmt.Sprintf("\nTomorrow's outlook:\n%s %s%s — %s",
			wx.Solar.Emoji(), wx.Description, tempStr, wx.Solar.Label()))
		switch wx.Solar {
		case weather.SolarExcellent, weather.SolarGood:
			lines = append(lines, "🔋 Likely negative prices midday\n"+
				"• Morning: Let solar charge battery\n"+
				"• Midday: Charge from grid (negative prices)\n"+
				"• Evening: Discharge during peak")
		case weather.SolarModerate:
			lines = append(lines, "⛅ Some solar generation expected\n"+
				"• Midday prices may dip but unlikely negative\n"+
				"• Evening: Discharge during peak if prices rise")
		default:
			lines = append(lines, "🌧️ Low solar generation expected\n"+
				"• Prices unlikely to go negative\n"+
				"• Conserve battery for evening peak")
		}
		if wx.TempMax != nil {
			if *wx.TempMax >= 35 {
				lines = append(lines, "⚡ Extreme heat — expect high evening demand and prices")
			} else if *wx.TempMax >= 30 {
				lines = append(lines, "⚡ Hot day — possible elevated evening prices")
			}
		}
	}

	lines = append(lines, "\nPowered by AEMO + BOM data | /help for commands")
	return strings.Join(lines, "\n")
}

// WelcomeMessage is the /start greeting shown above the region keyboard.
func WelcomeMessage() string {
	return "Welcome to NEM Price Bot! ⚡\n\n" +
		"I'll send you real-time electricity price alerts so you know\n" +
		"when to charge and discharge your home battery.\n\n" +
		"Select your NEM region:"
}

// ConfirmRegion acknowledges a region selection with current settings.
func ConfirmRegion(region string, highAlert, lowAlert float64) string {
	return fmt.Sprintf("✅ You're set up for %s.\n\n"+
		"Current alerts:\n"+
		"• High price: $%.0f/MWh (notify when price goes above)\n"+
		"• Low price: $%.0f/MWh (notify when price drops below)\n\n"+
		"Commands:\n"+
		"/price — Current spot price\n"+
		"/forecast — Next few hours outlook\n"+
		"/alert — Customise alert thresholds\n"+
		"/status — View your settings\n"+
		"/help — All commands",
		market.Display(region), highAlert, lowAlert)
}

// HelpMessage lists every command.
func HelpMessage() string {
	return "NEM Price Bot — Help ⚡\n\n" +
		"📊 Check prices:\n" +
		"/price — Current spot price for your region\n" +
		"/forecast — Price forecast for next 4–6 hours\n\n" +
		"🔔 Manage alerts:\n" +
		"/alert high 200 — Notify above $200/MWh\n" +
		"/alert low -20 — Notify below -$20/MWh\n" +
		"/alert off — Pause notifications\n" +
		"/alert on — Resume notifications\n\n" +
		"⚙️ Settings:\n" +
		"/status — View current settings\n" +
		"/region — Change your NEM region\n\n" +
		"ℹ️ About:\n" +
		"/about — What is this bot and where does the data come from\n\n" +
		"Data source: AEMO (aemo.com.au)\n" +
		"Prices update every 5 minutes.\n\n" +
		"⚠️ This is an information service only. Always verify\n" +
		"before making decisions. Not financial advice."
}

// AboutMessage describes the bot, data sources and disclaimer.
func AboutMessage() string {
	return "NEM Price Bot ⚡\n\n" +
		"An independent electricity price alert tool for Australian\n" +
		"solar + battery households.\n\n" +
		"📡 Data source:\n" +
		"Wholesale spot prices from AEMO's NEM dispatch system\n" +
		"(nemweb.com.au). Updated every 5 minutes.\n\n" +
		"🔒 Privacy:\n" +
		"We only store your Telegram chat ID and region selection.\n" +
		"No personal information is collected.\n\n" +
		"⚠️ Disclaimer:\n" +
		"This service provides wholesale market data for\n" +
		"informational purposes only. It does not constitute\n" +
		"financial, energy, or investment advice. Always verify\n" +
		"information before acting. Battery operation is entirely\n" +
		"at your own discretion and risk."
}
