package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

const (
	// DefaultMarketPrice is used when a city has no samples at all.
	DefaultMarketPrice = 2500.0
	// DefaultOccupancy is used when a city has no samples at all.
	DefaultOccupancy = 65.0

	// recentSampleWindow bounds the RECENT_AVG tier to the most recent
	// samples strictly before the target date.
	recentSampleWindow = 14
)

// MarketData is a resolved (price, occupancy) pair plus the cascade tier
// that supplied it.
type MarketData struct {
	Price      float64
	Occupancy  float64
	Provenance models.Provenance
}

// MarketDataResolver resolves market data for a (city, date) through a
// fallback cascade: exact sample, recent average, city-wide average, fixed
// defaults. It degrades instead of failing, so missing market data is never
// fatal; only store errors propagate.
type MarketDataResolver interface {
	Resolve(ctx context.Context, city string, dt time.Time) (MarketData, error)
}

type marketDataResolver struct {
	samples repositories.MarketSampleRepository
	logger  *zap.Logger
}

// NewMarketDataResolver creates a new MarketDataResolver.
func NewMarketDataResolver(samples repositories.MarketSampleRepository, logger *zap.Logger) MarketDataResolver {
	return &marketDataResolver{
		samples: samples,
		logger:  logger.Named("market_resolver"),
	}
}

var _ MarketDataResolver = (*marketDataResolver)(nil)

func (r *marketDataResolver) Resolve(ctx context.Context, city string, dt time.Time) (MarketData, error) {
	dt = dateOnly(dt)

	exact, err := r.samples.GetByCityAndDate(ctx, city, dt)
	if err != nil {
		return MarketData{}, fmt.Errorf("resolve exact sample: %w", err)
	}
	if exact != nil {
		return MarketData{
			Price:      exact.Price,
			Occupancy:  exact.Occupancy,
			Provenance: models.ProvenanceExact,
		}, nil
	}

	recent, err := r.samples.ListRecentBefore(ctx, city, dt, recentSampleWindow)
	if err != nil {
		return MarketData{}, fmt.Errorf("resolve recent samples: %w", err)
	}
	if len(recent) > 0 {
		var price, occ float64
		for _, s := range recent {
			price += s.Price
			occ += s.Occupancy
		}
		n := float64(len(recent))
		return MarketData{
			Price:      price / n,
			Occupancy:  occ / n,
			Provenance: models.ProvenanceRecentAvg,
		}, nil
	}

	agg, err := r.samples.AggregateByCity(ctx, city)
	if err != nil {
		return MarketData{}, fmt.Errorf("resolve city aggregate: %w", err)
	}
	if agg != nil {
		occ := agg.AvgOccupancy
		if occ == 0 {
			occ = DefaultOccupancy
		}
		return MarketData{
			Price:      agg.AvgPrice,
			Occupancy:  occ,
			Provenance: models.ProvenanceCityAvg,
		}, nil
	}

	r.logger.Debug("no market samples for city, using defaults",
		zap.String("city", city),
		zap.String("dt", dateKey(dt)))

	return MarketData{
		Price:      DefaultMarketPrice,
		Occupancy:  DefaultOccupancy,
		Provenance: models.ProvenanceDefault,
	}, nil
}
