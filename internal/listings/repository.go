package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborstay/harborstay/internal/shared"
)

const listingColumns = `id, owner_id, type, title, description, price, location, image_url, amenities, available_from, available_to, max_guests, is_active, created_at, updated_at`

// Repository defines persistence for listings.
type Repository interface {
	Get(ctx context.Context, id int64) (*Listing, error)
	ListActive(ctx context.Context, limit, offset int) ([]Listing, int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Listing, error)
	Create(ctx context.Context, l Listing) (*Listing, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Listing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *repository) ListActive(ctx context.Context, limit, offset int) ([]Listing, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+listingColumns+` FROM listings WHERE is_active ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int64) ([]Listing, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectListings(rows)
}

func (r *repository) Create(ctx context.Context, l Listing) (*Listing, error) {
	var maxGuests pgtype.Int4
	if l.MaxGuests != nil {
		maxGuests = pgtype.Int4{Int32: *l.MaxGuests, Valid: true}
	}
	var availableFrom, availableTo pgtype.Date
	if l.AvailableFrom != nil {
		availableFrom = pgtype.Date{Time: *l.AvailableFrom, Valid: true}
	}
	if l.AvailableTo != nil {
		availableTo = pgtype.Date{Time: *l.AvailableTo, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `INSERT INTO listings (owner_id, type, title, description, price, location, image_url, amenities, available_from, available_to, max_guests, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+listingColumns,
		l.OwnerID, string(l.Type), l.Title,
		pgtype.Text{String: derefString(l.Description), Valid: l.Description != nil},
		l.Price, l.Location,
		pgtype.Text{String: derefString(l.ImageURL), Valid: l.ImageURL != nil},
		l.Amenities, availableFrom, availableTo, maxGuests, l.IsActive,
	)
	return scanListing(row)
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE listings SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "description", "price", "location", "image_url", "amenities", "available_from", "available_to", "max_guests"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE listings SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectListings(rows pgx.Rows) ([]Listing, error) {
	var result []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

func scanListing(row pgx.Row) (*Listing, error) {
	var l Listing
	var rawType string
	var description, imageURL pgtype.Text
	var availableFrom, availableTo pgtype.Date
	var maxGuests pgtype.Int4

	err := row.Scan(
		&l.ID, &l.OwnerID, &rawType, &l.Title, &description, &l.Price, &l.Location,
		&imageURL, &l.Amenities, &availableFrom, &availableTo, &maxGuests,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Type = ListingType(rawType)
	if description.Valid {
		l.Description = &description.String
	}
	if imageURL.Valid {
		l.ImageURL = &imageURL.String
	}
	if availableFrom.Valid {
		t := availableFrom.Time
		l.AvailableFrom = &t
	}
	if availableTo.Valid {
		t := availableTo.Time
		l.AvailableTo = &t
	}
	if maxGuests.Valid {
		v := maxGuests.Int32
		l.MaxGuests = &v
	}
	return &l, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
