package models

import (
	"fmt"
	"math"
	"time"
)

// DayQuote is one priced day inside a batched LLM quote response.
type DayQuote struct {
	Dt        string   `json:"dt"` // YYYY-MM-DD
	Price     float64  `json:"price"`
	ConfLow   float64  `json:"conf_low"`
	ConfHigh  float64  `json:"conf_high"`
	Rationale string   `json:"rationale"`
	Flags     []string `json:"flags"`
}

// Date parses the quote's ISO date.
func (d *DayQuote) Date() (time.Time, error) {
	return time.Parse("2006-01-02", d.Dt)
}

// BoundsOrdered reports whether conf_low <= price <= conf_high. The
// structural validator deliberately does not enforce this; callers that
// persist quotes must check it per day.
func (d *DayQuote) BoundsOrdered() bool {
	return d.ConfLow <= d.Price && d.Price <= d.ConfHigh
}

// QuoteResponse is the strict schema for a batched multi-day quote reply.
type QuoteResponse struct {
	ListingID    string     `json:"listing_id"`
	HorizonDays  int        `json:"horizon_days"`
	Currency     string     `json:"currency"`
	Days         []DayQuote `json:"days"`
	ModelVersion string     `json:"model_version"`
}

// Validate checks the structural contract of a batched quote response:
// a listing id, a positive horizon, a three-letter currency code and a
// non-empty day list where every day carries a parseable ISO date and three
// positive finite numbers. The conf_low <= price <= conf_high invariant is
// expected but left to the caller.
func (q *QuoteResponse) Validate() error {
	if q.ListingID == "" {
		return fmt.Errorf("listing_id is required")
	}
	if q.HorizonDays < 1 {
		return fmt.Errorf("horizon_days must be a positive integer, got %d", q.HorizonDays)
	}
	if len(q.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", q.Currency)
	}
	if len(q.Days) == 0 {
		return fmt.Errorf("days must be a non-empty list")
	}
	for i := range q.Days {
		d := &q.Days[i]
		if _, err := d.Date(); err != nil {
			return fmt.Errorf("days[%d]: invalid dt %q", i, d.Dt)
		}
		for _, v := range []struct {
			name  string
			value float64
		}{
			{"price", d.Price},
			{"conf_low", d.ConfLow},
			{"conf_high", d.ConfHigh},
		} {
			if v.value <= 0 || math.IsNaN(v.value) || math.IsInf(v.value, 0) {
				return fmt.Errorf("days[%d]: %s must be a positive finite number, got %v", i, v.name, v.value)
			}
		}
	}
	return nil
}
