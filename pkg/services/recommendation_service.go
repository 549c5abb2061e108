package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/pricing"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

// baselineReason names the pricing basis for materialized rows; the
// resolver's provenance suffix is appended when a fallback tier was used.
const baselineReason = "baseline: market + occupancy + weekend + events"

// MaterializeResult reports what a materialization call produced.
type MaterializeResult struct {
	ListingID        uuid.UUID `json:"listing_id"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	Created          int       `json:"created"`
	MissingExactDays int       `json:"missing_exact_market_days"`
	FallbackDays     int       `json:"used_fallback_days"`
}

// RecommendationService owns the derived recommendation cache: it
// materializes windows from market data and the baseline model, and serves
// reads with gap-filling so a caller never observes an incomplete window.
type RecommendationService interface {
	// Materialize computes recommendations for every day in [from, to] and,
	// when replace is set, atomically swaps them in for the prior rows.
	Materialize(ctx context.Context, listingID uuid.UUID, from, to time.Time, replace bool) (*MaterializeResult, error)

	// GetRecommendations returns the window ordered ascending by date,
	// regenerating the whole window first when any day is missing.
	GetRecommendations(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error)
}

type recommendationService struct {
	listings repositories.ListingRepository
	samples  repositories.MarketSampleRepository
	features repositories.FeaturesRepository
	recs     repositories.RecommendationRepository
	resolver MarketDataResolver
	logger   *zap.Logger

	// listingLocks serializes writers per listing so two overlapping
	// materializations cannot interleave a half-replaced window.
	listingLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(
	listings repositories.ListingRepository,
	samples repositories.MarketSampleRepository,
	features repositories.FeaturesRepository,
	recs repositories.RecommendationRepository,
	resolver MarketDataResolver,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		listings: listings,
		samples:  samples,
		features: features,
		recs:     recs,
		resolver: resolver,
		logger:   logger.Named("recommendations"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) lockListing(id uuid.UUID) func() {
	v, _ := s.listingLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *recommendationService) Materialize(ctx context.Context, listingID uuid.UUID, from, to time.Time, replace bool) (*MaterializeResult, error) {
	unlock := s.lockListing(listingID)
	defer unlock()

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	from, to = normalizeRange(from, to)

	// Bulk preload the window; the resolver cascade only runs for days the
	// preload misses.
	sampleRows, err := s.samples.ListByCityRange(ctx, listing.City, from, to)
	if err != nil {
		return nil, fmt.Errorf("preload market samples: %w", err)
	}
	sampleMap := make(map[string]*models.MarketSample, len(sampleRows))
	for _, row := range sampleRows {
		sampleMap[dateKey(row.Dt)] = row
	}

	featureRows, err := s.features.ListByCityRange(ctx, listing.City, from, to)
	if err != nil {
		return nil, fmt.Errorf("preload features: %w", err)
	}
	featureMap := make(map[string]*models.FeaturesDaily, len(featureRows))
	for _, row := range featureRows {
		featureMap[dateKey(row.Dt)] = row
	}

	rooms := listing.Rooms
	if rooms < 1 {
		rooms = 1
	}

	result := &MaterializeResult{
		ListingID: listingID,
		From:      dateKey(from),
		To:        dateKey(to),
	}

	now := time.Now()
	recs := make([]*models.Recommendation, 0, daysInclusive(from, to))

	err = eachDay(from, to, func(d time.Time) error {
		var md MarketData
		if sample, ok := sampleMap[dateKey(d)]; ok {
			md = MarketData{
				Price:      sample.Price,
				Occupancy:  sample.Occupancy,
				Provenance: models.ProvenanceExact,
			}
		} else {
			result.MissingExactDays++
			md, err = s.resolver.Resolve(ctx, listing.City, d)
			if err != nil {
				return err
			}
		}
		if md.Provenance.IsFallback() {
			result.FallbackDays++
		}

		var eventScore float64
		if ft, ok := featureMap[dateKey(d)]; ok {
			eventScore = ft.EventScore
		}

		price := pricing.BaselinePrice(pricing.BaselineInput{
			Rooms:       rooms,
			MarketPrice: md.Price,
			Occupancy:   md.Occupancy,
			EventScore:  eventScore,
			Weekday:     d.Weekday(),
		})
		low, high := pricing.ConfidenceBounds(price)

		recs = append(recs, &models.Recommendation{
			ListingID: listingID,
			Dt:        d,
			RecPrice:  pricing.Round2(price),
			ConfLow:   low,
			ConfHigh:  high,
			Reason:    baselineReason + md.Provenance.ReasonSuffix(),
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recs.ReplaceRange(ctx, listingID, from, to, recs, replace); err != nil {
		return nil, err
	}

	result.Created = len(recs)

	s.logger.Info("materialized recommendation window",
		zap.String("listing_id", listingID.String()),
		zap.String("from", result.From),
		zap.String("to", result.To),
		zap.Int("created", result.Created),
		zap.Int("missing_exact_days", result.MissingExactDays),
		zap.Int("fallback_days", result.FallbackDays))

	return result, nil
}

func (s *recommendationService) GetRecommendations(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	from, to = normalizeRange(from, to)
	expected := daysInclusive(from, to)

	have, err := s.recs.CountByListingRange(ctx, listingID, from, to)
	if err != nil {
		return nil, err
	}

	// Any gap regenerates the entire window, not just the missing days, so
	// every reason in the window reflects the same generation pass.
	if have < expected {
		s.logger.Info("recommendation window incomplete, regenerating",
			zap.String("listing_id", listingID.String()),
			zap.Int("have", have),
			zap.Int("expected", expected))

		if _, err := s.Materialize(ctx, listingID, from, to, true); err != nil {
			return nil, err
		}
	}

	return s.recs.ListByListingRange(ctx, listingID, from, to)
}
