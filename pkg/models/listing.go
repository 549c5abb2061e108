package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a rentable unit. Rows are created by seeding or external
// administration; the pricing core only reads them.
type Listing struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	City      string    `json:"city"`
	Rooms     int       `json:"rooms"`
	CreatedAt time.Time `json:"created_at"`
}
