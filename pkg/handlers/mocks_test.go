package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
	"github.com/rentpulse/pricing-engine/pkg/services"
)

// mockListingRepo backs handler tests with a fixed listing set.
type mockListingRepo struct {
	listings map[uuid.UUID]*models.Listing
}

func newMockListingRepo(listings ...*models.Listing) *mockListingRepo {
	r := &mockListingRepo{listings: make(map[uuid.UUID]*models.Listing)}
	for _, l := range listings {
		r.listings[l.ID] = l
	}
	return r
}

func (r *mockListingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, apperrors.ErrNotFound)
	}
	return l, nil
}

func (r *mockListingRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.listings[id]
	return ok, nil
}

func (r *mockListingRepo) List(_ context.Context) ([]*models.Listing, error) {
	out := make([]*models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l)
	}
	return out, nil
}

func (r *mockListingRepo) ListByCity(_ context.Context, city string, limit int) ([]*models.Listing, error) {
	out := make([]*models.Listing, 0)
	for _, l := range r.listings {
		if l.City == city && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *mockListingRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(r.listings))
	for id := range r.listings {
		out = append(out, id)
	}
	return out, nil
}

func (r *mockListingRepo) Create(_ context.Context, listing *models.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

var _ repositories.ListingRepository = (*mockListingRepo)(nil)

// mockCalendarRepo serves a fixed calendar.
type mockCalendarRepo struct {
	days []*models.CalendarDay
}

func (r *mockCalendarRepo) ListByListingRange(_ context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.CalendarDay, error) {
	out := make([]*models.CalendarDay, 0)
	for _, d := range r.days {
		if d.ListingID == listingID && !d.Dt.Before(from) && !d.Dt.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *mockCalendarRepo) BulkInsert(_ context.Context, days []*models.CalendarDay) error {
	r.days = append(r.days, days...)
	return nil
}

func (r *mockCalendarRepo) DeleteRange(_ context.Context, _, _ time.Time) error {
	return nil
}

var _ repositories.CalendarRepository = (*mockCalendarRepo)(nil)

// mockRecommendationService records calls and replays canned responses.
type mockRecommendationService struct {
	recs []*models.Recommendation
	err  error

	gotListingID uuid.UUID
	gotFrom      time.Time
	gotTo        time.Time
}

func (m *mockRecommendationService) Materialize(_ context.Context, listingID uuid.UUID, from, to time.Time, _ bool) (*services.MaterializeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.MaterializeResult{ListingID: listingID, Created: len(m.recs)}, nil
}

func (m *mockRecommendationService) GetRecommendations(_ context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error) {
	m.gotListingID = listingID
	m.gotFrom = from
	m.gotTo = to
	if m.err != nil {
		return nil, m.err
	}
	return m.recs, nil
}

var _ services.RecommendationService = (*mockRecommendationService)(nil)

// mockQuoteService is a no-op quoting pipeline for dispatch tests.
type mockQuoteService struct {
	rangeCalls int32
	batchCalls int32
}

func (m *mockQuoteService) GenerateRange(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, error) {
	m.rangeCalls++
	return 1, nil
}

func (m *mockQuoteService) GenerateBatch(_ context.Context, _ uuid.UUID, _ int) (int, error) {
	m.batchCalls++
	return 1, nil
}

func (m *mockQuoteService) GenerateForAllListings(_ context.Context, _ int) error {
	return nil
}

var _ services.QuoteService = (*mockQuoteService)(nil)
