package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/pricing"
)

type recFixture struct {
	listings *fakeListingRepo
	samples  *fakeSampleRepo
	features *fakeFeaturesRepo
	recs     *fakeRecRepo
	svc      RecommendationService
	listing  *models.Listing
}

func newRecFixture(t *testing.T, city string, rooms int) *recFixture {
	t.Helper()

	listing := &models.Listing{ID: uuid.New(), Title: "Test Stay", City: city, Rooms: rooms}
	f := &recFixture{
		listings: newFakeListingRepo(listing),
		samples:  &fakeSampleRepo{},
		features: &fakeFeaturesRepo{},
		recs:     newFakeRecRepo(),
		listing:  listing,
	}
	resolver := NewMarketDataResolver(f.samples, zap.NewNop())
	f.svc = NewRecommendationService(f.listings, f.samples, f.features, f.recs, resolver, zap.NewNop())
	return f
}

func TestMaterializeExactSample(t *testing.T) {
	f := newRecFixture(t, "Pune", 2)
	// 2026-03-02 is a Monday.
	day := date("2026-03-02")
	f.samples.samples = append(f.samples.samples, &models.MarketSample{
		City: "Pune", Dt: day, Price: 3000, Occupancy: 70,
	})

	result, err := f.svc.Materialize(context.Background(), f.listing.ID, day, day, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 0, result.MissingExactDays)
	require.Equal(t, 0, result.FallbackDays)

	rows, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, day, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	wantPrice := pricing.Round2(3000 * 1.08 * (1 + 5.0/300))
	require.Equal(t, wantPrice, rows[0].RecPrice)
	require.Equal(t, pricing.Round2(wantPrice*0.9), rows[0].ConfLow)
	require.Equal(t, pricing.Round2(wantPrice*1.1), rows[0].ConfHigh)
	require.Equal(t, "baseline: market + occupancy + weekend + events", rows[0].Reason)
}

func TestMaterializeDefaultsWindow(t *testing.T) {
	// Goa has no market samples anywhere, every day degrades to defaults.
	f := newRecFixture(t, "Goa", 1)
	from, to := date("2026-03-02"), date("2026-03-08")

	result, err := f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)
	require.Equal(t, 7, result.Created)
	require.Equal(t, 7, result.MissingExactDays)
	require.Equal(t, 7, result.FallbackDays)

	rows, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for _, row := range rows {
		require.Contains(t, row.Reason, "(fallback: defaults)")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	f := newRecFixture(t, "Pune", 2)
	from, to := date("2026-03-02"), date("2026-03-05")
	for d := 0; d < 4; d++ {
		f.samples.samples = append(f.samples.samples, &models.MarketSample{
			City: "Pune", Dt: from.AddDate(0, 0, d), Price: 2800, Occupancy: 68,
		})
	}

	_, err := f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)
	first, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)

	_, err = f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)
	second, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].Dt, second[i].Dt)
		require.Equal(t, first[i].RecPrice, second[i].RecPrice)
		require.Equal(t, first[i].ConfLow, second[i].ConfLow)
		require.Equal(t, first[i].ConfHigh, second[i].ConfHigh)
		require.Equal(t, first[i].Reason, second[i].Reason)
	}
}

func TestMaterializeSwapsInvertedRange(t *testing.T) {
	f := newRecFixture(t, "Goa", 1)

	result, err := f.svc.Materialize(context.Background(), f.listing.ID, date("2026-03-08"), date("2026-03-02"), true)
	require.NoError(t, err)
	require.Equal(t, 7, result.Created)
	require.Equal(t, "2026-03-02", result.From)
	require.Equal(t, "2026-03-08", result.To)
}

func TestMaterializeUnknownListing(t *testing.T) {
	f := newRecFixture(t, "Pune", 1)

	_, err := f.svc.Materialize(context.Background(), uuid.New(), date("2026-03-02"), date("2026-03-08"), true)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMaterializeStoreFailureLeavesRowsUntouched(t *testing.T) {
	f := newRecFixture(t, "Goa", 1)
	from, to := date("2026-03-02"), date("2026-03-08")

	_, err := f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)
	before, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, before, 7)

	f.recs.replaceErr = errors.New("copy failed")
	_, err = f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.Error(t, err)

	after, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, after, 7, "failed replace must not lose prior rows")
}

func TestGetRecommendationsFillsGaps(t *testing.T) {
	f := newRecFixture(t, "Goa", 1)
	from, to := date("2026-03-02"), date("2026-03-08")

	_, err := f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)

	// Punch two holes and leave an unrelated row outside the window.
	f.recs.delete(f.listing.ID, date("2026-03-04"))
	f.recs.delete(f.listing.ID, date("2026-03-06"))
	outside := &models.Recommendation{
		ListingID: f.listing.ID, Dt: date("2026-04-01"),
		RecPrice: 1234, ConfLow: 1100, ConfHigh: 1350, Reason: "unrelated",
	}
	require.NoError(t, f.recs.Upsert(context.Background(), outside))

	rows, err := f.svc.GetRecommendations(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 7, "gap triggers full-window regeneration")
	for i := 1; i < len(rows); i++ {
		require.True(t, rows[i-1].Dt.Before(rows[i].Dt), "rows must be ordered ascending")
	}

	kept, err := f.recs.ListByListingRange(context.Background(), f.listing.ID, date("2026-04-01"), date("2026-04-01"))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Equal(t, "unrelated", kept[0].Reason, "rows outside the window must be untouched")
}

func TestGetRecommendationsCompleteWindowSkipsRegeneration(t *testing.T) {
	f := newRecFixture(t, "Goa", 1)
	from, to := date("2026-03-02"), date("2026-03-08")

	_, err := f.svc.Materialize(context.Background(), f.listing.ID, from, to, true)
	require.NoError(t, err)

	// A full window must be served even if the store would reject writes.
	f.recs.replaceErr = errors.New("no writes expected")

	rows, err := f.svc.GetRecommendations(context.Background(), f.listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 7)
}

func TestGetRecommendationsUnknownListing(t *testing.T) {
	f := newRecFixture(t, "Pune", 1)

	_, err := f.svc.GetRecommendations(context.Background(), uuid.New(), date("2026-03-02"), date("2026-03-08"))
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDaysInclusive(t *testing.T) {
	require.Equal(t, 1, daysInclusive(date("2026-03-02"), date("2026-03-02")))
	require.Equal(t, 7, daysInclusive(date("2026-03-02"), date("2026-03-08")))
	require.Equal(t, 15, daysInclusive(date("2026-03-01"), date("2026-03-15")))
}

func TestNormalizeRangeTruncatesTimestamps(t *testing.T) {
	from, to := normalizeRange(
		time.Date(2026, 3, 8, 23, 15, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC),
	)
	require.Equal(t, date("2026-03-02"), from)
	require.Equal(t, date("2026-03-08"), to)
}
