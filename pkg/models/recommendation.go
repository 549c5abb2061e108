package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is the materialized price suggestion for one listing and
// date. It is a derived cache: fully reconstructible from market samples,
// daily features and the pricing model (or from an LLM quote), and never a
// source of truth for demand signals. Unique per (listing_id, dt).
type Recommendation struct {
	ID        int64     `json:"-"`
	ListingID uuid.UUID `json:"listing_id"`
	Dt        time.Time `json:"dt"`
	RecPrice  float64   `json:"rec_price"`
	ConfLow   float64   `json:"conf_low"`
	ConfHigh  float64   `json:"conf_high"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
