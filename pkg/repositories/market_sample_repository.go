package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rentpulse/pricing-engine/pkg/database"
	"github.com/rentpulse/pricing-engine/pkg/models"
)

// CityAggregate is the city-wide average over every stored sample.
type CityAggregate struct {
	AvgPrice     float64
	AvgOccupancy float64
	Samples      int
}

// MarketSampleRepository provides read access to observed market samples plus
// the bulk-write surface used by seeding/ingest.
type MarketSampleRepository interface {
	// GetByCityAndDate returns the exact sample or nil when none exists.
	GetByCityAndDate(ctx context.Context, city string, dt time.Time) (*models.MarketSample, error)
	ListByCityRange(ctx context.Context, city string, from, to time.Time) ([]*models.MarketSample, error)
	// ListRecentBefore returns up to limit samples strictly before the date,
	// most recent first.
	ListRecentBefore(ctx context.Context, city string, before time.Time, limit int) ([]*models.MarketSample, error)
	// AggregateByCity returns nil when the city has no samples at all.
	AggregateByCity(ctx context.Context, city string) (*CityAggregate, error)
	BulkInsert(ctx context.Context, samples []*models.MarketSample) error
	DeleteRange(ctx context.Context, from, to time.Time) error
}

type marketSampleRepository struct {
	db *database.DB
}

// NewMarketSampleRepository creates a new MarketSampleRepository.
func NewMarketSampleRepository(db *database.DB) MarketSampleRepository {
	return &marketSampleRepository{db: db}
}

var _ MarketSampleRepository = (*marketSampleRepository)(nil)

func (r *marketSampleRepository) GetByCityAndDate(ctx context.Context, city string, dt time.Time) (*models.MarketSample, error) {
	query := `
		SELECT id, city, dt, price, occupancy, n_listings
		FROM market_samples
		WHERE city = $1 AND dt = $2`

	var s models.MarketSample
	err := r.db.QueryRow(ctx, query, city, dt).Scan(
		&s.ID, &s.City, &s.Dt, &s.Price, &s.Occupancy, &s.NListings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market sample: %w", err)
	}

	return &s, nil
}

func (r *marketSampleRepository) ListByCityRange(ctx context.Context, city string, from, to time.Time) ([]*models.MarketSample, error) {
	query := `
		SELECT id, city, dt, price, occupancy, n_listings
		FROM market_samples
		WHERE city = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt`

	rows, err := r.db.Query(ctx, query, city, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list market samples: %w", err)
	}
	defer rows.Close()

	return scanMarketSamples(rows)
}

func (r *marketSampleRepository) ListRecentBefore(ctx context.Context, city string, before time.Time, limit int) ([]*models.MarketSample, error) {
	query := `
		SELECT id, city, dt, price, occupancy, n_listings
		FROM market_samples
		WHERE city = $1 AND dt < $2
		ORDER BY dt DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, city, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent market samples: %w", err)
	}
	defer rows.Close()

	return scanMarketSamples(rows)
}

func (r *marketSampleRepository) AggregateByCity(ctx context.Context, city string) (*CityAggregate, error) {
	query := `
		SELECT AVG(price), AVG(occupancy), COUNT(*)
		FROM market_samples
		WHERE city = $1`

	var avgPrice, avgOcc *float64
	var count int
	err := r.db.QueryRow(ctx, query, city).Scan(&avgPrice, &avgOcc, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate market samples: %w", err)
	}

	if avgPrice == nil || count == 0 {
		return nil, nil
	}

	agg := &CityAggregate{AvgPrice: *avgPrice, Samples: count}
	if avgOcc != nil {
		agg.AvgOccupancy = *avgOcc
	}
	return agg, nil
}

func (r *marketSampleRepository) BulkInsert(ctx context.Context, samples []*models.MarketSample) error {
	if len(samples) == 0 {
		return nil
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"market_samples"},
		[]string{"city", "dt", "price", "occupancy", "n_listings"},
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			s := samples[i]
			return []any{s.City, s.Dt, s.Price, s.Occupancy, s.NListings}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert market samples: %w", err)
	}

	return nil
}

func (r *marketSampleRepository) DeleteRange(ctx context.Context, from, to time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM market_samples WHERE dt BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return fmt.Errorf("failed to delete market samples: %w", err)
	}
	return nil
}

func scanMarketSamples(rows pgx.Rows) ([]*models.MarketSample, error) {
	samples := make([]*models.MarketSample, 0)
	for rows.Next() {
		var s models.MarketSample
		if err := rows.Scan(&s.ID, &s.City, &s.Dt, &s.Price, &s.Occupancy, &s.NListings); err != nil {
			return nil, fmt.Errorf("failed to scan market sample: %w", err)
		}
		samples = append(samples, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market samples: %w", err)
	}
	return samples, nil
}
