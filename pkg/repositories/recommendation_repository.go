package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rentpulse/pricing-engine/pkg/database"
	"github.com/rentpulse/pricing-engine/pkg/models"
)

// RecommendationRepository owns the derived recommendation cache. Writers use
// either range-scoped replace (materializer) or per-day upsert (LLM quoting);
// rows are never mutated field-by-field.
type RecommendationRepository interface {
	// ListByListingRange returns rows ordered ascending by date.
	ListByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error)
	CountByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) (int, error)

	// ReplaceRange atomically replaces the listing's rows in [from, to]:
	// the delete (when replace is true) and the bulk insert commit together
	// or not at all.
	ReplaceRange(ctx context.Context, listingID uuid.UUID, from, to time.Time, recs []*models.Recommendation, replace bool) error

	// Upsert inserts or updates a single (listing, date) row.
	Upsert(ctx context.Context, rec *models.Recommendation) error

	// UpsertAll applies per-day upserts inside one transaction, so a failed
	// batch leaves no partial writes.
	UpsertAll(ctx context.Context, recs []*models.Recommendation) error
}

type recommendationRepository struct {
	db *database.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *database.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

var _ RecommendationRepository = (*recommendationRepository)(nil)

func (r *recommendationRepository) ListByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.Recommendation, error) {
	query := `
		SELECT id, listing_id, dt, rec_price, conf_low, conf_high, reason, created_at
		FROM recommendations
		WHERE listing_id = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt`

	rows, err := r.db.Query(ctx, query, listingID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]*models.Recommendation, 0)
	for rows.Next() {
		var rec models.Recommendation
		if err := rows.Scan(&rec.ID, &rec.ListingID, &rec.Dt, &rec.RecPrice,
			&rec.ConfLow, &rec.ConfHigh, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

func (r *recommendationRepository) CountByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE listing_id = $1 AND dt BETWEEN $2 AND $3`,
		listingID, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}

func (r *recommendationRepository) ReplaceRange(ctx context.Context, listingID uuid.UUID, from, to time.Time, recs []*models.Recommendation, replace bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if replace {
		_, err = tx.Exec(ctx,
			`DELETE FROM recommendations WHERE listing_id = $1 AND dt BETWEEN $2 AND $3`,
			listingID, from, to)
		if err != nil {
			return fmt.Errorf("failed to delete recommendation window: %w", err)
		}
	}

	if len(recs) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"recommendations"},
			[]string{"listing_id", "dt", "rec_price", "conf_low", "conf_high", "reason", "created_at"},
			pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
				rec := recs[i]
				return []any{rec.ListingID, rec.Dt, rec.RecPrice, rec.ConfLow,
					rec.ConfHigh, rec.Reason, rec.CreatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation window: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recommendation window: %w", err)
	}

	return nil
}

const upsertRecommendationSQL = `
	INSERT INTO recommendations (listing_id, dt, rec_price, conf_low, conf_high, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (listing_id, dt)
	DO UPDATE SET
		rec_price = EXCLUDED.rec_price,
		conf_low = EXCLUDED.conf_low,
		conf_high = EXCLUDED.conf_high,
		reason = EXCLUDED.reason`

func (r *recommendationRepository) Upsert(ctx context.Context, rec *models.Recommendation) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, upsertRecommendationSQL,
		rec.ListingID, rec.Dt, rec.RecPrice, rec.ConfLow, rec.ConfHigh, rec.Reason, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert recommendation: %w", err)
	}

	return nil
}

func (r *recommendationRepository) UpsertAll(ctx context.Context, recs []*models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range recs {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}
		if _, err := tx.Exec(ctx, upsertRecommendationSQL,
			rec.ListingID, rec.Dt, rec.RecPrice, rec.ConfLow, rec.ConfHigh, rec.Reason, rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to upsert recommendation for %s: %w", rec.Dt.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recommendation upserts: %w", err)
	}

	return nil
}
