package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuoteResponse() QuoteResponse {
	return QuoteResponse{
		ListingID:   "b3e9a1a2-5c3f-4f4f-9a1e-111111111111",
		HorizonDays: 2,
		Currency:    "INR",
		Days: []DayQuote{
			{Dt: "2026-03-02", Price: 4000, ConfLow: 3600, ConfHigh: 4400, Rationale: "weekend"},
			{Dt: "2026-03-03", Price: 3200, ConfLow: 2900, ConfHigh: 3500},
		},
		ModelVersion: "llm_v1",
	}
}

func TestQuoteResponseValidateAccepts(t *testing.T) {
	q := validQuoteResponse()
	require.NoError(t, q.Validate())
}

func TestQuoteResponseValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuoteResponse)
	}{
		{"missing listing id", func(q *QuoteResponse) { q.ListingID = "" }},
		{"zero horizon", func(q *QuoteResponse) { q.HorizonDays = 0 }},
		{"negative horizon", func(q *QuoteResponse) { q.HorizonDays = -3 }},
		{"bad currency", func(q *QuoteResponse) { q.Currency = "RUPEES" }},
		{"empty currency", func(q *QuoteResponse) { q.Currency = "" }},
		{"no days", func(q *QuoteResponse) { q.Days = nil }},
		{"bad date", func(q *QuoteResponse) { q.Days[0].Dt = "03/02/2026" }},
		{"zero price", func(q *QuoteResponse) { q.Days[0].Price = 0 }},
		{"negative conf_low", func(q *QuoteResponse) { q.Days[1].ConfLow = -10 }},
		{"NaN price", func(q *QuoteResponse) { q.Days[0].Price = math.NaN() }},
		{"infinite conf_high", func(q *QuoteResponse) { q.Days[0].ConfHigh = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuoteResponse()
			tt.mutate(&q)
			assert.Error(t, q.Validate())
		})
	}
}

func TestQuoteResponseValidateAllowsInvertedBounds(t *testing.T) {
	// Ordering is a per-day persistence decision, not a schema failure.
	q := validQuoteResponse()
	q.Days[0].ConfLow = 5000

	require.NoError(t, q.Validate())
	require.False(t, q.Days[0].BoundsOrdered())
	require.True(t, q.Days[1].BoundsOrdered())
}

func TestDayQuoteDate(t *testing.T) {
	d := DayQuote{Dt: "2026-03-02"}
	parsed, err := d.Date()
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
}
