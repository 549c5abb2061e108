// Package pricing implements the deterministic baseline pricing model.
// Everything here is pure: no I/O, no randomness, no hidden state.
package pricing

import (
	"math"
	"time"
)

const (
	// FloorPrice is the absolute lower bound for any recommended price.
	FloorPrice = 1000.0
	// CeilingFactor caps the recommendation at this multiple of the market price.
	CeilingFactor = 2.0

	extraRoomPremium  = 0.08
	occupancyCenter   = 65.0
	occupancyDivisor  = 300.0
	weekendMultiplier = 1.10
	eventScoreDivisor = 50.0
)

// BaselineInput holds the signals the baseline model prices from.
type BaselineInput struct {
	Rooms       int          // >= 1
	MarketPrice float64      // > 0, city average nightly rate
	Occupancy   float64      // 0..100
	EventScore  float64      // 0..10
	Weekday     time.Weekday // Friday/Saturday treated as weekend
}

// IsWeekend reports whether the pricing model treats the day as weekend.
func IsWeekend(d time.Weekday) bool {
	return d == time.Friday || d == time.Saturday
}

// BaselinePrice computes the recommended nightly price. The result is always
// within [FloorPrice, MarketPrice*CeilingFactor].
func BaselinePrice(in BaselineInput) float64 {
	base := in.MarketPrice * (1 + extraRoomPremium*math.Max(0, float64(in.Rooms-1)))
	base *= 1 + (in.Occupancy-occupancyCenter)/occupancyDivisor
	if IsWeekend(in.Weekday) {
		base *= weekendMultiplier
	}
	base *= 1 + in.EventScore/eventScoreDivisor
	return math.Max(FloorPrice, math.Min(base, in.MarketPrice*CeilingFactor))
}

// ConfidenceBounds derives the low/high band around a recommended price,
// rounded to 2 decimal places.
func ConfidenceBounds(price float64) (low, high float64) {
	return Round2(price * 0.9), Round2(price * 1.1)
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
