package bookings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/shared"
)

const bookingColumns = `id, user_id, listing_id, check_in, check_out, guests, total_price, status, special_requests, admin_notes, created_at, updated_at`

// Repository defines persistence for bookings.
type Repository interface {
	Get(ctx context.Context, id int64) (*Booking, error)
	GetWithDetails(ctx context.Context, id int64) (*BookingWithDetails, error)
	Create(ctx context.Context, b Booking) (*Booking, error)
	ListByRequester(ctx context.Context, userID int64) ([]Booking, error)
	ListForOwner(ctx context.Context, ownerID int64) ([]BookingWithDetails, error)
	ListAll(ctx context.Context) ([]BookingWithDetails, error)
	CountByStatusForOwner(ctx context.Context, ownerID int64, all bool) (map[BookingStatus]int, error)
	UpdateStatusIfPending(ctx context.Context, id int64, status BookingStatus, adminNotes *string) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

const detailQuery = `
SELECT b.id, b.user_id, b.listing_id, b.check_in, b.check_out, b.guests,
       b.total_price, b.status, b.special_requests, b.admin_notes,
       b.created_at, b.updated_at,
       l.title AS listing_title, l.type AS listing_type, l.owner_id AS listing_owner_id,
       p.full_name AS requester_name, p.email AS requester_email
FROM bookings b
JOIN listings l ON b.listing_id = l.id
JOIN profiles p ON b.user_id = p.user_id`

func (r *repository) GetWithDetails(ctx context.Context, id int64) (*BookingWithDetails, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE b.id = $1`, id)
	d, err := scanBookingWithDetails(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *repository) Create(ctx context.Context, b Booking) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO bookings (user_id, listing_id, check_in, check_out, guests, total_price, status, special_requests)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+bookingColumns,
		b.UserID, b.ListingID,
		pgtype.Date{Time: b.CheckIn, Valid: true},
		pgtype.Date{Time: b.CheckOut, Valid: true},
		b.Guests, b.TotalPrice, string(b.Status),
		pgtype.Text{String: derefString(b.SpecialRequests), Valid: b.SpecialRequests != nil},
	)
	return scanBooking(row)
}

func (r *repository) ListByRequester(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *repository) ListForOwner(ctx context.Context, ownerID int64) ([]BookingWithDetails, error) {
	rows, err := r.pool.Query(ctx, detailQuery+` WHERE l.owner_id = $1 ORDER BY b.created_at DESC, b.id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *repository) ListAll(ctx context.Context) ([]BookingWithDetails, error) {
	rows, err := r.pool.Query(ctx, detailQuery+` ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *repository) CountByStatusForOwner(ctx context.Context, ownerID int64, all bool) (map[BookingStatus]int, error) {
	query := `SELECT b.status, COUNT(*) FROM bookings b JOIN listings l ON b.listing_id = l.id`
	args := []any{}
	if !all {
		query += ` WHERE l.owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` GROUP BY b.status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[BookingStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[BookingStatus(status)] = count
	}
	return counts, rows.Err()
}

// UpdateStatusIfPending applies the transition as a single conditional
// update so two concurrent decisions cannot both succeed. The boolean
// reports whether this call won the transition.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id int64, status BookingStatus, adminNotes *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET status = $1, admin_notes = COALESCE($2, admin_notes), updated_at = NOW() WHERE id = $3 AND status = $4`,
		string(status),
		pgtype.Text{String: derefString(adminNotes), Valid: adminNotes != nil},
		id, string(StatusPending),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectDetails(rows pgx.Rows) ([]BookingWithDetails, error) {
	var result []BookingWithDetails
	for rows.Next() {
		d, err := scanBookingWithDetails(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var checkIn, checkOut pgtype.Date
	var status string
	var specialRequests, adminNotes pgtype.Text

	err := row.Scan(&b.ID, &b.UserID, &b.ListingID, &checkIn, &checkOut, &b.Guests, &b.TotalPrice, &status, &specialRequests, &adminNotes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.CheckIn = checkIn.Time
	b.CheckOut = checkOut.Time
	b.Status = BookingStatus(status)
	if specialRequests.Valid {
		b.SpecialRequests = &specialRequests.String
	}
	if adminNotes.Valid {
		b.AdminNotes = &adminNotes.String
	}
	return &b, nil
}

func scanBookingWithDetails(row pgx.Row) (*BookingWithDetails, error) {
	var d BookingWithDetails
	var checkIn, checkOut pgtype.Date
	var status, listingType string
	var specialRequests, adminNotes pgtype.Text

	err := row.Scan(
		&d.ID, &d.UserID, &d.ListingID, &checkIn, &checkOut, &d.Guests,
		&d.TotalPrice, &status, &specialRequests, &adminNotes,
		&d.CreatedAt, &d.UpdatedAt,
		&d.ListingTitle, &listingType, &d.ListingOwnerID,
		&d.RequesterName, &d.RequesterEmail,
	)
	if err != nil {
		return nil, err
	}

	d.CheckIn = checkIn.Time
	d.CheckOut = checkOut.Time
	d.Status = BookingStatus(status)
	d.ListingType = listings.ListingType(listingType)
	if specialRequests.Valid {
		d.SpecialRequests = &specialRequests.String
	}
	if adminNotes.Valid {
		d.AdminNotes = &adminNotes.String
	}
	return &d, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
