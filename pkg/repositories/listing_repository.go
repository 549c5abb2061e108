package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/database"
	"github.com/rentpulse/pricing-engine/pkg/models"
)

// ListingRepository provides read access to the listings store. Listings are
// created by seeding or external administration; the pricing core never
// mutates them.
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*models.Listing, error)
	ListByCity(ctx context.Context, city string, limit int) ([]*models.Listing, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, listing *models.Listing) error
}

type listingRepository struct {
	db *database.DB
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *database.DB) ListingRepository {
	return &listingRepository{db: db}
}

var _ ListingRepository = (*listingRepository)(nil)

func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := `
		SELECT id, title, city, rooms, created_at
		FROM listings
		WHERE id = $1`

	var l models.Listing
	err := r.db.QueryRow(ctx, query, id).Scan(&l.ID, &l.Title, &l.City, &l.Rooms, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &l, nil
}

func (r *listingRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check listing existence: %w", err)
	}
	return exists, nil
}

func (r *listingRepository) List(ctx context.Context) ([]*models.Listing, error) {
	query := `
		SELECT id, title, city, rooms, created_at
		FROM listings
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

func (r *listingRepository) ListByCity(ctx context.Context, city string, limit int) ([]*models.Listing, error) {
	query := `
		SELECT id, title, city, rooms, created_at
		FROM listings
		WHERE city = $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, city, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings by city: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

func (r *listingRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM listings ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing ids: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan listing id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing ids: %w", err)
	}

	return ids, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}

	query := `
		INSERT INTO listings (id, title, city, rooms)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		listing.ID, listing.Title, listing.City, listing.Rooms,
	).Scan(&listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func scanListings(rows pgx.Rows) ([]*models.Listing, error) {
	listings := make([]*models.Listing, 0)
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.City, &l.Rooms, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}
