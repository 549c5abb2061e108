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

// CalendarRepository provides read access to per-listing availability plus
// the bulk-write surface used by seeding.
type CalendarRepository interface {
	ListByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.CalendarDay, error)
	BulkInsert(ctx context.Context, days []*models.CalendarDay) error
	DeleteRange(ctx context.Context, from, to time.Time) error
}

type calendarRepository struct {
	db *database.DB
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(db *database.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

var _ CalendarRepository = (*calendarRepository)(nil)

func (r *calendarRepository) ListByListingRange(ctx context.Context, listingID uuid.UUID, from, to time.Time) ([]*models.CalendarDay, error) {
	query := `
		SELECT id, listing_id, dt, min_nights, blocked
		FROM calendar
		WHERE listing_id = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt`

	rows, err := r.db.Query(ctx, query, listingID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar days: %w", err)
	}
	defer rows.Close()

	days := make([]*models.CalendarDay, 0)
	for rows.Next() {
		var d models.CalendarDay
		if err := rows.Scan(&d.ID, &d.ListingID, &d.Dt, &d.MinNights, &d.Blocked); err != nil {
			return nil, fmt.Errorf("failed to scan calendar day: %w", err)
		}
		days = append(days, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar days: %w", err)
	}

	return days, nil
}

func (r *calendarRepository) BulkInsert(ctx context.Context, days []*models.CalendarDay) error {
	if len(days) == 0 {
		return nil
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"calendar"},
		[]string{"listing_id", "dt", "min_nights", "blocked"},
		pgx.CopyFromSlice(len(days), func(i int) ([]any, error) {
			d := days[i]
			return []any{d.ListingID, d.Dt, d.MinNights, d.Blocked}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert calendar days: %w", err)
	}

	return nil
}

func (r *calendarRepository) DeleteRange(ctx context.Context, from, to time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM calendar WHERE dt BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return fmt.Errorf("failed to delete calendar days: %w", err)
	}
	return nil
}
