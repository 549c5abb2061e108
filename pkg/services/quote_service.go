package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/jsonutil"
	"github.com/rentpulse/pricing-engine/pkg/llm"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/pricing"
	"github.com/rentpulse/pricing-engine/pkg/prompts"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

const (
	defaultQuoteReason = "LLM generated"

	// maxComps caps how many comparable listing titles the batch prompt
	// carries.
	maxComps = 5
)

// QuoteService drives the LLM quoting pipeline. Generated quotes land in the
// same recommendation cache as baseline rows via per-day upsert, so a quote
// overrides the baseline for its (listing, date) without touching neighbors.
type QuoteService interface {
	// GenerateRange requests one quote per day in [from, to] and writes them
	// in a single transaction. Any model failure aborts the whole range with
	// nothing written.
	GenerateRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) (int, error)

	// GenerateBatch requests all horizon days in one model call and upserts
	// each valid returned day independently, skipping malformed ones.
	GenerateBatch(ctx context.Context, listingID uuid.UUID, horizonDays int) (int, error)

	// GenerateForAllListings runs GenerateRange for every listing over
	// [today, today+daysAhead-1].
	GenerateForAllListings(ctx context.Context, daysAhead int) error
}

type quoteService struct {
	listings    repositories.ListingRepository
	features    repositories.FeaturesRepository
	recs        repositories.RecommendationRepository
	resolver    MarketDataResolver
	client      llm.CompletionClient
	temperature float64
	logger      *zap.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(
	listings repositories.ListingRepository,
	features repositories.FeaturesRepository,
	recs repositories.RecommendationRepository,
	resolver MarketDataResolver,
	client llm.CompletionClient,
	temperature float64,
	logger *zap.Logger,
) QuoteService {
	return &quoteService{
		listings:    listings,
		features:    features,
		recs:        recs,
		resolver:    resolver,
		client:      client,
		temperature: temperature,
		logger:      logger.Named("quotes"),
	}
}

var _ QuoteService = (*quoteService)(nil)

// dayQuoteReply tolerates the model's common key and type drift: price may
// arrive as rec_price, bounds as low/high or conf_low/conf_high, and any
// number may arrive as a quoted string.
type dayQuoteReply struct {
	Price    *jsonutil.FlexibleFloat `json:"price"`
	RecPrice *jsonutil.FlexibleFloat `json:"rec_price"`
	Low      *jsonutil.FlexibleFloat `json:"low"`
	ConfLow  *jsonutil.FlexibleFloat `json:"conf_low"`
	High     *jsonutil.FlexibleFloat `json:"high"`
	ConfHigh *jsonutil.FlexibleFloat `json:"conf_high"`
	Reason   string                  `json:"reason"`
}

func firstFloat(candidates ...*jsonutil.FlexibleFloat) (float64, bool) {
	for _, c := range candidates {
		if c != nil {
			return float64(*c), true
		}
	}
	return 0, false
}

func (s *quoteService) GenerateRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) (int, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return 0, err
	}

	from, to = normalizeRange(from, to)

	recs := make([]*models.Recommendation, 0, daysInclusive(from, to))

	err = eachDay(from, to, func(d time.Time) error {
		var eventScore float64
		var isHoliday bool
		ft, err := s.features.GetByCityAndDate(ctx, listing.City, d)
		if err != nil {
			return err
		}
		if ft != nil {
			eventScore = ft.EventScore
			isHoliday = ft.IsHoliday
		}

		prompt := prompts.BuildDayQuotePrompt(listing.City, d, eventScore, isHoliday)

		raw, err := s.client.GenerateJSON(ctx, prompts.QuoteSystemPrompt, prompt, s.temperature)
		if err != nil {
			return fmt.Errorf("quote %s: %w", dateKey(d), err)
		}

		reply, err := llm.ParseJSONResponse[dayQuoteReply](raw)
		if err != nil {
			return fmt.Errorf("quote %s: %w", dateKey(d), err)
		}

		price, ok := firstFloat(reply.Price, reply.RecPrice)
		if !ok || price <= 0 {
			return fmt.Errorf("quote %s: model omitted a usable price: %w", dateKey(d), apperrors.ErrExternalService)
		}

		defLow, defHigh := pricing.ConfidenceBounds(price)
		low, ok := firstFloat(reply.Low, reply.ConfLow)
		if !ok {
			low = defLow
		}
		high, ok := firstFloat(reply.High, reply.ConfHigh)
		if !ok {
			high = defHigh
		}

		reason := reply.Reason
		if reason == "" {
			reason = defaultQuoteReason
		}

		recs = append(recs, &models.Recommendation{
			ListingID: listingID,
			Dt:        d,
			RecPrice:  price,
			ConfLow:   low,
			ConfHigh:  high,
			Reason:    reason,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.recs.UpsertAll(ctx, recs); err != nil {
		return 0, err
	}

	s.logger.Info("generated quote range",
		zap.String("listing_id", listingID.String()),
		zap.String("from", dateKey(from)),
		zap.String("to", dateKey(to)),
		zap.Int("days", len(recs)),
		zap.String("model", s.client.GetModel()))

	return len(recs), nil
}

func (s *quoteService) GenerateBatch(ctx context.Context, listingID uuid.UUID, horizonDays int) (int, error) {
	if horizonDays < 1 {
		return 0, fmt.Errorf("horizon must be at least one day: %w", apperrors.ErrValidation)
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return 0, err
	}

	today := dateOnly(time.Now())

	md, err := s.resolver.Resolve(ctx, listing.City, today)
	if err != nil {
		return 0, err
	}

	qc := prompts.BatchQuoteContext{
		ListingID:   listingID.String(),
		Title:       listing.Title,
		City:        listing.City,
		Rooms:       listing.Rooms,
		MarketPrice: md.Price,
		Occupancy:   md.Occupancy,
		IsWeekend:   pricing.IsWeekend(today.Weekday()),
		HorizonDays: horizonDays,
	}

	ft, err := s.features.GetByCityAndDate(ctx, listing.City, today)
	if err != nil {
		return 0, err
	}
	if ft != nil {
		qc.EventScore = ft.EventScore
		if ft.IsHoliday {
			qc.HolidayName = ft.HolidayName
		}
		qc.AvgTemp = ft.AvgTemp
		qc.PrecipMM = ft.PrecipMM
	}

	comps, err := s.listings.ListByCity(ctx, listing.City, maxComps)
	if err != nil {
		return 0, err
	}
	for _, c := range comps {
		if c.ID == listingID {
			continue
		}
		qc.Comps = append(qc.Comps, c.Title)
	}

	raw, err := s.client.GenerateJSON(ctx, prompts.QuoteSystemPrompt, prompts.BuildBatchQuotePrompt(qc), s.temperature)
	if err != nil {
		return 0, fmt.Errorf("batch quote: %w", err)
	}

	resp, err := llm.ParseJSONResponse[models.QuoteResponse](raw)
	if err != nil {
		return 0, fmt.Errorf("batch quote: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("quote response rejected: %v: %w", err, apperrors.ErrValidation)
	}

	written := 0
	for _, day := range resp.Days {
		if !day.BoundsOrdered() {
			s.logger.Warn("skipping quote day with inverted bounds",
				zap.String("listing_id", listingID.String()),
				zap.String("dt", day.Dt),
				zap.Float64("conf_low", day.ConfLow),
				zap.Float64("price", day.Price),
				zap.Float64("conf_high", day.ConfHigh))
			continue
		}

		dt, err := day.Date()
		if err != nil {
			// Validate already checked dt, keep the guard for safety.
			s.logger.Warn("skipping quote day with bad date",
				zap.String("listing_id", listingID.String()),
				zap.String("dt", day.Dt))
			continue
		}

		reason := day.Rationale
		if reason == "" {
			reason = defaultQuoteReason
		}

		rec := &models.Recommendation{
			ListingID: listingID,
			Dt:        dt,
			RecPrice:  day.Price,
			ConfLow:   day.ConfLow,
			ConfHigh:  day.ConfHigh,
			Reason:    reason,
		}
		if err := s.recs.Upsert(ctx, rec); err != nil {
			s.logger.Error("failed to upsert quote day",
				zap.String("listing_id", listingID.String()),
				zap.String("dt", day.Dt),
				zap.Error(err))
			continue
		}
		written++
	}

	s.logger.Info("generated quote batch",
		zap.String("listing_id", listingID.String()),
		zap.Int("horizon_days", horizonDays),
		zap.Int("returned", len(resp.Days)),
		zap.Int("written", written),
		zap.String("model_version", resp.ModelVersion))

	return written, nil
}

func (s *quoteService) GenerateForAllListings(ctx context.Context, daysAhead int) error {
	if daysAhead < 1 {
		daysAhead = 1
	}

	ids, err := s.listings.ListIDs(ctx)
	if err != nil {
		return err
	}

	today := dateOnly(time.Now())
	end := today.AddDate(0, 0, daysAhead-1)

	for _, id := range ids {
		if _, err := s.GenerateRange(ctx, id, today, end); err != nil {
			return fmt.Errorf("listing %s: %w", id, err)
		}
	}

	s.logger.Info("generated quotes for all listings",
		zap.Int("listings", len(ids)),
		zap.Int("days_ahead", daysAhead))

	return nil
}
