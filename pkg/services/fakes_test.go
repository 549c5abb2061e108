package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

// In-memory repository fakes. They honor the same nil-on-missing and
// not-found contracts as the pgx implementations.

type fakeListingRepo struct {
	listings map[uuid.UUID]*models.Listing
}

func newFakeListingRepo(listings ...*models.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: make(map[uuid.UUID]*models.Listing)}
	for _, l := range listings {
		r.listings[l.ID] = l
	}
	return r
}

func (r *fakeListingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, apperrors.ErrNotFound)
	}
	return l, nil
}

func (r *fakeListingRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.listings[id]
	return ok, nil
}

func (r *fakeListingRepo) List(_ context.Context) ([]*models.Listing, error) {
	out := make([]*models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeListingRepo) ListByCity(_ context.Context, city string, limit int) ([]*models.Listing, error) {
	out := make([]*models.Listing, 0)
	for _, l := range r.listings {
		if l.City == city && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(r.listings))
	for id := range r.listings {
		out = append(out, id)
	}
	return out, nil
}

func (r *fakeListingRepo) Create(_ context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	r.listings[listing.ID] = listing
	return nil
}

var _ repositories.ListingRepository = (*fakeListingRepo)(nil)

type fakeSampleRepo struct {
	samples []*models.MarketSample
	err     error
}

func (r *fakeSampleRepo) GetByCityAndDate(_ context.Context, city string, dt time.Time) (*models.MarketSample, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, s := range r.samples {
		if s.City == city && s.Dt.Equal(dt) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSampleRepo) ListByCityRange(_ context.Context, city string, from, to time.Time) ([]*models.MarketSample, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.MarketSample, 0)
	for _, s := range r.samples {
		if s.City == city && !s.Dt.Before(from) && !s.Dt.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSampleRepo) ListRecentBefore(_ context.Context, city string, before time.Time, limit int) ([]*models.MarketSample, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.MarketSample, 0)
	for _, s := range r.samples {
		if s.City == city && s.Dt.Before(before) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dt.After(out[j].Dt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSampleRepo) AggregateByCity(_ context.Context, city string) (*repositories.CityAggregate, error) {
	if r.err != nil {
		return nil, r.err
	}
	agg := &repositories.CityAggregate{}
	for _, s := range r.samples {
		if s.City == city {
			agg.AvgPrice += s.Price
			agg.AvgOccupancy += s.Occupancy
			agg.Samples++
		}
	}
	if agg.Samples == 0 {
		return nil, nil
	}
	agg.AvgPrice /= float64(agg.Samples)
	agg.AvgOccupancy /= float64(agg.Samples)
	return agg, nil
}

func (r *fakeSampleRepo) BulkInsert(_ context.Context, samples []*models.MarketSample) error {
	r.samples = append(r.samples, samples...)
	return nil
}

func (r *fakeSampleRepo) DeleteRange(_ context.Context, from, to time.Time) error {
	kept := r.samples[:0]
	for _, s := range r.samples {
		if s.Dt.Before(from) || s.Dt.After(to) {
			kept = append(kept, s)
		}
	}
	r.samples = kept
	return nil
}

var _ repositories.MarketSampleRepository = (*fakeSampleRepo)(nil)

type fakeFeaturesRepo struct {
	features []*models.FeaturesDaily
}

func (r *fakeFeaturesRepo) GetByCityAndDate(_ context.Context, city string, dt time.Time) (*models.FeaturesDaily, error) {
	for _, f := range r.features {
		if f.City == city && f.Dt.Equal(dt) {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeFeaturesRepo) ListByCityRange(_ context.Context, city string, from, to time.Time) ([]*models.FeaturesDaily, error) {
	out := make([]*models.FeaturesDaily, 0)
	for _, f := range r.features {
		if f.City == city && !f.Dt.Before(from) && !f.Dt.After(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFeaturesRepo) BulkInsert(_ context.Context, features []*models.FeaturesDaily) error {
	r.features = append(r.features, features...)
	return nil
}

func (r *fakeFeaturesRepo) DeleteRange(_ context.Context, from, to time.Time) error {
	kept := r.features[:0]
	for _, f := range r.features {
		if f.Dt.Before(from) || f.Dt.After(to) {
			kept = append(kept, f)
		}
	}
	r.features = kept
	return nil
}

var _ repositories.FeaturesRepository = (*fakeFeaturesRepo)(nil)

type fakeRecRepo struct {
	rows map[string]*models.Recommendation // listingID|dateKey

	replaceErr error // fail ReplaceRange without mutating rows
	upsertErr  error
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{rows: make(map[string]*models.Recommendation)}
}

func recKey(listingID uuid.UUID, dt time.Time) string {
	return listingID.String() + "|" + dateKey(dt)
}

func (r *fakeRecRepo) ListByListingRange(_ context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error) {
	out := make([]*models.Recommendation, 0)
	for _, rec := range r.rows {
		if rec.ListingID == listingID && !rec.Dt.Before(from) && !rec.Dt.After(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dt.Before(out[j].Dt) })
	return out, nil
}

func (r *fakeRecRepo) CountByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) (int, error) {
	recs, err := r.ListByListingRange(ctx, listingID, from, to)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (r *fakeRecRepo) ReplaceRange(_ context.Context, listingID uuid.UUID, from, to time.Time, recs []*models.Recommendation, replace bool) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	if replace {
		for key, rec := range r.rows {
			if rec.ListingID == listingID && !rec.Dt.Before(from) && !rec.Dt.After(to) {
				delete(r.rows, key)
			}
		}
	}
	for _, rec := range recs {
		copied := *rec
		r.rows[recKey(rec.ListingID, rec.Dt)] = &copied
	}
	return nil
}

func (r *fakeRecRepo) Upsert(_ context.Context, rec *models.Recommendation) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	copied := *rec
	r.rows[recKey(rec.ListingID, rec.Dt)] = &copied
	return nil
}

func (r *fakeRecRepo) UpsertAll(ctx context.Context, recs []*models.Recommendation) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, rec := range recs {
		if err := r.Upsert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRecRepo) delete(listingID uuid.UUID, dt time.Time) {
	delete(r.rows, recKey(listingID, dt))
}

var _ repositories.RecommendationRepository = (*fakeRecRepo)(nil)
