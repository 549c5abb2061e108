// Package prompts builds the natural-language instructions sent to the
// completion service. Prompt text is the contract with the model: every
// template states the exact JSON shape expected back.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// QuoteSystemPrompt frames the model as a pricing strategist and demands
// schema-exact JSON output.
const QuoteSystemPrompt = `You are a pricing strategist for short-term rentals.
Decide nightly prices which maximize revenue while staying competitive.
ALWAYS return STRICT JSON which matches the provided schema exactly. No prose.`

// BuildDayQuotePrompt renders the single-day quote instruction. The reply
// must be a JSON object with keys price, low, high, reason.
func BuildDayQuotePrompt(city string, dt time.Time, eventScore float64, isHoliday bool) string {
	var b strings.Builder

	b.WriteString("You are an expert hotel/Airbnb pricing analyst.\n")
	fmt.Fprintf(&b, "City: %s\n", city)
	fmt.Fprintf(&b, "Date: %s\n", dt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Signals: event_score=%g, is_holiday=%t\n", eventScore, isHoliday)
	b.WriteString("Return STRICT JSON object with keys: price, low, high, reason. ")
	b.WriteString("Numbers should be floats in INR.")

	return b.String()
}

// BatchQuoteContext carries the richer context for a multi-day quote request.
type BatchQuoteContext struct {
	ListingID   string
	Title       string
	City        string
	Rooms       int
	MarketPrice float64 // city average nightly rate today
	Occupancy   float64 // 0..100
	IsWeekend   bool
	HolidayName string // empty when not a holiday
	EventScore  float64
	AvgTemp     *float64 // °C, optional
	PrecipMM    *float64 // millimeters, optional
	Comps       []string // sample of comparable listing titles in the city
	HorizonDays int
}

// BuildBatchQuotePrompt renders the multi-day quote instruction. The reply
// must match the QuoteResponse schema: listing_id, horizon_days, currency and
// a days list of {dt, price, conf_low, conf_high, rationale, flags} objects.
func BuildBatchQuotePrompt(qc BatchQuoteContext) string {
	holiday := qc.HolidayName
	if holiday == "" {
		holiday = "none"
	}

	weather := "unknown"
	if qc.AvgTemp != nil && qc.PrecipMM != nil {
		weather = fmt.Sprintf("avg temp %.1f°C, precip %.1fmm", *qc.AvgTemp, *qc.PrecipMM)
	}

	comps := "none"
	if len(qc.Comps) > 0 {
		comps = strings.Join(qc.Comps, "; ")
	}

	var b strings.Builder

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Listing: %s, city: %s, rooms: %d\n", qc.Title, qc.City, qc.Rooms)
	fmt.Fprintf(&b, "- Market avg price (today): %.2f\n", qc.MarketPrice)
	fmt.Fprintf(&b, "- Market occupancy (today): %.1f%%\n", qc.Occupancy)
	fmt.Fprintf(&b, "- Weekend today? %t\n", qc.IsWeekend)
	fmt.Fprintf(&b, "- Holiday: %s\n", holiday)
	fmt.Fprintf(&b, "- Event score today: %g\n", qc.EventScore)
	fmt.Fprintf(&b, "- Weather: %s\n", weather)
	fmt.Fprintf(&b, "- Top %d semantic comps (sample): %s\n", len(qc.Comps), comps)

	b.WriteString("\nTask:\n")
	fmt.Fprintf(&b, "Propose prices for the next %d days.\n", qc.HorizonDays)
	b.WriteString("Return JSON ONLY:\n")
	fmt.Fprintf(&b, `{
  "listing_id": "%s",
  "horizon_days": %d,
  "currency": "INR",
  "days": [
    {"dt": "YYYY-MM-DD", "price": 0, "conf_low": 0, "conf_high": 0, "rationale": "", "flags": []}
  ],
  "model_version": "llm_v1"
}
`, qc.ListingID, qc.HorizonDays)

	b.WriteString(`
Rules:
- conf_low <= price <= conf_high
- Keep prices within 0.5x..2.0x of city market avg unless strongly justified (then add a "flag")
- Use demand signals (occupancy, weekend/holiday, events, weather) sensibly
`)

	return b.String()
}
