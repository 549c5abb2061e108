package models

import "time"

// MarketSample is one observed city-wide average for a single date.
// Unique per (city, dt). Populated by ingest/seeding, read-only to the
// pricing core.
type MarketSample struct {
	ID        int64     `json:"id"`
	City      string    `json:"city"`
	Dt        time.Time `json:"dt"`
	Price     float64   `json:"price"`     // average nightly rate
	Occupancy float64   `json:"occupancy"` // 0..100 percentage
	NListings int       `json:"n_listings"`
}
