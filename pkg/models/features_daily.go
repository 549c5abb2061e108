package models

import "time"

// FeaturesDaily holds per (city, date) demand signals.
// Unique per (city, dt). Read-only to the pricing core.
type FeaturesDaily struct {
	ID          int64     `json:"id"`
	City        string    `json:"city"`
	Dt          time.Time `json:"dt"`
	IsHoliday   bool      `json:"is_holiday"`
	EventScore  float64   `json:"event_score"` // 0..10
	HolidayName string    `json:"holiday_name"`
	AvgTemp     *float64  `json:"avg_temp,omitempty"`   // °C
	PrecipMM    *float64  `json:"precip_mm,omitempty"`  // millimeters
}
