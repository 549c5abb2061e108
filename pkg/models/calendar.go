package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarDay is per-listing availability for one night. Unique per
// (listing_id, dt).
type CalendarDay struct {
	ID        int64     `json:"-"`
	ListingID uuid.UUID `json:"listing_id"`
	Dt        time.Time `json:"dt"`
	MinNights int       `json:"min_nights"`
	Blocked   bool      `json:"blocked"`
}
