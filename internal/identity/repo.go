package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborstay/harborstay/internal/platform/db"
	"github.com/harborstay/harborstay/internal/shared"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// Repository defines persistence operations for the identity module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindProfile(ctx context.Context, userID int64) (*Profile, error)
	CreateAccount(ctx context.Context, email, passwordHash, fullName string) (*Account, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, is_active, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindProfile fetches the profile row for a user.
func (r *PGRepository) FindProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	var phone pgtype.Text
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, full_name, email, phone, created_at, updated_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	return &p, nil
}

// CreateAccount inserts the account and its profile row in one transaction.
// A duplicate email surfaces as a validation error.
func (r *PGRepository) CreateAccount(ctx context.Context, email, passwordHash, fullName string) (*Account, error) {
	var account Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (email, password_hash, is_active) VALUES ($1, $2, true)
RETURNING id, email, password_hash, is_active, created_at, updated_at`, email, passwordHash).
			Scan(&account.ID, &account.Email, &account.PasswordHash, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: email already registered", shared.ErrValidation)
			}
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO profiles (user_id, full_name, email) VALUES ($1, $2, $3)`, account.ID, fullName, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID,
		pgtype.Timestamptz{Time: now, Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""},
	)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
