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

// FeaturesRepository provides read access to per (city, date) demand signals
// plus the bulk-write surface used by seeding/ingest.
type FeaturesRepository interface {
	// GetByCityAndDate returns the feature row or nil when none exists.
	GetByCityAndDate(ctx context.Context, city string, dt time.Time) (*models.FeaturesDaily, error)
	ListByCityRange(ctx context.Context, city string, from, to time.Time) ([]*models.FeaturesDaily, error)
	BulkInsert(ctx context.Context, features []*models.FeaturesDaily) error
	DeleteRange(ctx context.Context, from, to time.Time) error
}

type featuresRepository struct {
	db *database.DB
}

// NewFeaturesRepository creates a new FeaturesRepository.
func NewFeaturesRepository(db *database.DB) FeaturesRepository {
	return &featuresRepository{db: db}
}

var _ FeaturesRepository = (*featuresRepository)(nil)

func (r *featuresRepository) GetByCityAndDate(ctx context.Context, city string, dt time.Time) (*models.FeaturesDaily, error) {
	query := `
		SELECT id, city, dt, is_holiday, event_score, holiday_name, avg_temp, precip_mm
		FROM features_daily
		WHERE city = $1 AND dt = $2`

	var f models.FeaturesDaily
	err := r.db.QueryRow(ctx, query, city, dt).Scan(
		&f.ID, &f.City, &f.Dt, &f.IsHoliday, &f.EventScore, &f.HolidayName, &f.AvgTemp, &f.PrecipMM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get features: %w", err)
	}

	return &f, nil
}

func (r *featuresRepository) ListByCityRange(ctx context.Context, city string, from, to time.Time) ([]*models.FeaturesDaily, error) {
	query := `
		SELECT id, city, dt, is_holiday, event_score, holiday_name, avg_temp, precip_mm
		FROM features_daily
		WHERE city = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt`

	rows, err := r.db.Query(ctx, query, city, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	features := make([]*models.FeaturesDaily, 0)
	for rows.Next() {
		var f models.FeaturesDaily
		if err := rows.Scan(&f.ID, &f.City, &f.Dt, &f.IsHoliday, &f.EventScore, &f.HolidayName, &f.AvgTemp, &f.PrecipMM); err != nil {
			return nil, fmt.Errorf("failed to scan features: %w", err)
		}
		features = append(features, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}

	return features, nil
}

func (r *featuresRepository) BulkInsert(ctx context.Context, features []*models.FeaturesDaily) error {
	if len(features) == 0 {
		return nil
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"features_daily"},
		[]string{"city", "dt", "is_holiday", "event_score", "holiday_name", "avg_temp", "precip_mm"},
		pgx.CopyFromSlice(len(features), func(i int) ([]any, error) {
			f := features[i]
			return []any{f.City, f.Dt, f.IsHoliday, f.EventScore, f.HolidayName, f.AvgTemp, f.PrecipMM}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert features: %w", err)
	}

	return nil
}

func (r *featuresRepository) DeleteRange(ctx context.Context, from, to time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM features_daily WHERE dt BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return fmt.Errorf("failed to delete features: %w", err)
	}
	return nil
}
