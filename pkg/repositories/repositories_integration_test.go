//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/testhelpers"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// uniqueCity keeps test fixtures isolated in the shared container.
func uniqueCity(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func createListing(t *testing.T, repo ListingRepository, city string) *models.Listing {
	t.Helper()
	listing := &models.Listing{Title: "Test Flat", City: city, Rooms: 2}
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func TestListingRepository(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewListingRepository(testDB.DB)
	ctx := context.Background()

	city := uniqueCity("listing")
	listing := createListing(t, repo, city)
	require.NotEqual(t, uuid.Nil, listing.ID)
	require.False(t, listing.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, got.ID)
	assert.Equal(t, city, got.City)
	assert.Equal(t, 2, got.Rooms)

	exists, err := repo.Exists(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	byCity, err := repo.ListByCity(ctx, city, 10)
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, listing.ID, byCity[0].ID)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, listing.ID)
}

func TestMarketSampleRepository(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewMarketSampleRepository(testDB.DB)
	ctx := context.Background()

	city := uniqueCity("market")
	samples := []*models.MarketSample{
		{City: city, Dt: day(2026, 3, 1), Price: 3000, Occupancy: 60, NListings: 10},
		{City: city, Dt: day(2026, 3, 2), Price: 3200, Occupancy: 70, NListings: 12},
		{City: city, Dt: day(2026, 3, 5), Price: 3400, Occupancy: 80, NListings: 8},
	}
	require.NoError(t, repo.BulkInsert(ctx, samples))

	t.Run("exact date", func(t *testing.T) {
		got, err := repo.GetByCityAndDate(ctx, city, day(2026, 3, 2))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 3200.0, got.Price)
		assert.Equal(t, 70.0, got.Occupancy)
	})

	t.Run("missing date returns nil", func(t *testing.T) {
		got, err := repo.GetByCityAndDate(ctx, city, day(2026, 3, 3))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("recent before is strictly earlier, newest first", func(t *testing.T) {
		got, err := repo.ListRecentBefore(ctx, city, day(2026, 3, 5), 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, day(2026, 3, 2), got[0].Dt.UTC())
		assert.Equal(t, day(2026, 3, 1), got[1].Dt.UTC())
	})

	t.Run("recent before honors limit", func(t *testing.T) {
		got, err := repo.ListRecentBefore(ctx, city, day(2026, 3, 6), 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, day(2026, 3, 5), got[0].Dt.UTC())
	})

	t.Run("city aggregate", func(t *testing.T) {
		agg, err := repo.AggregateByCity(ctx, city)
		require.NoError(t, err)
		require.NotNil(t, agg)
		assert.InDelta(t, 3200.0, agg.AvgPrice, 0.01)
		assert.InDelta(t, 70.0, agg.AvgOccupancy, 0.01)
		assert.Equal(t, 3, agg.Samples)
	})

	t.Run("unknown city aggregate is nil", func(t *testing.T) {
		agg, err := repo.AggregateByCity(ctx, uniqueCity("empty"))
		require.NoError(t, err)
		assert.Nil(t, agg)
	})

	t.Run("range query", func(t *testing.T) {
		got, err := repo.ListByCityRange(ctx, city, day(2026, 3, 1), day(2026, 3, 2))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestFeaturesRepository(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFeaturesRepository(testDB.DB)
	ctx := context.Background()

	city := uniqueCity("features")
	temp := 31.5
	features := []*models.FeaturesDaily{
		{City: city, Dt: day(2026, 3, 2), IsHoliday: true, EventScore: 7.5, HolidayName: "Holi", AvgTemp: &temp},
		{City: city, Dt: day(2026, 3, 3), EventScore: 0},
	}
	require.NoError(t, repo.BulkInsert(ctx, features))

	got, err := repo.GetByCityAndDate(ctx, city, day(2026, 3, 2))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsHoliday)
	assert.Equal(t, 7.5, got.EventScore)
	assert.Equal(t, "Holi", got.HolidayName)
	require.NotNil(t, got.AvgTemp)
	assert.Equal(t, 31.5, *got.AvgTemp)
	assert.Nil(t, got.PrecipMM)

	missing, err := repo.GetByCityAndDate(ctx, city, day(2026, 3, 4))
	require.NoError(t, err)
	assert.Nil(t, missing)

	listed, err := repo.ListByCityRange(ctx, city, day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestCalendarRepository(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	listings := NewListingRepository(testDB.DB)
	repo := NewCalendarRepository(testDB.DB)
	ctx := context.Background()

	listing := createListing(t, listings, uniqueCity("calendar"))
	other := createListing(t, listings, uniqueCity("calendar"))

	days := []*models.CalendarDay{
		{ListingID: listing.ID, Dt: day(2026, 3, 2), MinNights: 2},
		{ListingID: listing.ID, Dt: day(2026, 3, 3), MinNights: 2, Blocked: true},
		{ListingID: other.ID, Dt: day(2026, 3, 2), MinNights: 1},
	}
	require.NoError(t, repo.BulkInsert(ctx, days))

	got, err := repo.ListByListingRange(ctx, listing.ID, day(2026, 3, 1), day(2026, 3, 10))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(2026, 3, 2), got[0].Dt.UTC())
	assert.False(t, got[0].Blocked)
	assert.True(t, got[1].Blocked)
}

func TestRecommendationRepositoryReplaceRange(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	listings := NewListingRepository(testDB.DB)
	repo := NewRecommendationRepository(testDB.DB)
	ctx := context.Background()

	listing := createListing(t, listings, uniqueCity("recs"))
	from, to := day(2026, 3, 1), day(2026, 3, 3)

	window := func(price float64) []*models.Recommendation {
		recs := make([]*models.Recommendation, 0, 3)
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			recs = append(recs, &models.Recommendation{
				ListingID: listing.ID,
				Dt:        d,
				RecPrice:  price,
				ConfLow:   price * 0.9,
				ConfHigh:  price * 1.1,
				Reason:    "baseline: market + occupancy + weekend + events",
				CreatedAt: time.Now(),
			})
		}
		return recs
	}

	require.NoError(t, repo.ReplaceRange(ctx, listing.ID, from, to, window(3000), true))

	count, err := repo.CountByListingRange(ctx, listing.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Replacing the same window swaps the rows instead of stacking them.
	require.NoError(t, repo.ReplaceRange(ctx, listing.ID, from, to, window(3500), true))

	got, err := repo.ListByListingRange(ctx, listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, rec := range got {
		assert.Equal(t, 3500.0, rec.RecPrice)
	}

	// Without replace the insert collides with existing rows and the
	// transaction rolls back, leaving the window untouched.
	err = repo.ReplaceRange(ctx, listing.ID, from, to, window(4000), false)
	require.Error(t, err)

	got, err = repo.ListByListingRange(ctx, listing.ID, from, to)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, rec := range got {
		assert.Equal(t, 3500.0, rec.RecPrice)
	}
}

func TestRecommendationRepositoryUpsert(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	listings := NewListingRepository(testDB.DB)
	repo := NewRecommendationRepository(testDB.DB)
	ctx := context.Background()

	listing := createListing(t, listings, uniqueCity("upsert"))
	dt := day(2026, 3, 2)

	require.NoError(t, repo.Upsert(ctx, &models.Recommendation{
		ListingID: listing.ID, Dt: dt,
		RecPrice: 3000, ConfLow: 2700, ConfHigh: 3300, Reason: "LLM generated",
	}))
	require.NoError(t, repo.Upsert(ctx, &models.Recommendation{
		ListingID: listing.ID, Dt: dt,
		RecPrice: 3200, ConfLow: 2880, ConfHigh: 3520, Reason: "demand spike",
	}))

	got, err := repo.ListByListingRange(ctx, listing.ID, dt, dt)
	require.NoError(t, err)
	require.Len(t, got, 1, "conflicting upsert must update in place")
	assert.Equal(t, 3200.0, got[0].RecPrice)
	assert.Equal(t, "demand spike", got[0].Reason)
}

func TestRecommendationRepositoryUpsertAll(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	listings := NewListingRepository(testDB.DB)
	repo := NewRecommendationRepository(testDB.DB)
	ctx := context.Background()

	listing := createListing(t, listings, uniqueCity("batch"))

	recs := []*models.Recommendation{
		{ListingID: listing.ID, Dt: day(2026, 3, 2), RecPrice: 3100, ConfLow: 2790, ConfHigh: 3410, Reason: "LLM generated"},
		{ListingID: listing.ID, Dt: day(2026, 3, 3), RecPrice: 3150, ConfLow: 2835, ConfHigh: 3465, Reason: "LLM generated"},
	}
	require.NoError(t, repo.UpsertAll(ctx, recs))

	count, err := repo.CountByListingRange(ctx, listing.ID, day(2026, 3, 2), day(2026, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A batch containing a row that violates the FK leaves no partial writes.
	bad := []*models.Recommendation{
		{ListingID: listing.ID, Dt: day(2026, 3, 4), RecPrice: 3200, ConfLow: 2880, ConfHigh: 3520, Reason: "LLM generated"},
		{ListingID: uuid.New(), Dt: day(2026, 3, 4), RecPrice: 3200, ConfLow: 2880, ConfHigh: 3520, Reason: "LLM generated"},
	}
	require.Error(t, repo.UpsertAll(ctx, bad))

	count, err = repo.CountByListingRange(ctx, listing.ID, day(2026, 3, 2), day(2026, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
