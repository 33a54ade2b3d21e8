package roles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
)

// Repository defines persistence for role assignments.
type Repository interface {
	ListRoles(ctx context.Context, userID int64) ([]policy.Role, error)
	ListAssignments(ctx context.Context, userID int64) ([]Assignment, error)
	Insert(ctx context.Context, userID int64, role policy.Role) error
	Delete(ctx context.Context, userID int64, role policy.Role) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRoles returns the raw role values assigned to a user.
func (r *PGRepository) ListRoles(ctx context.Context, userID int64) ([]policy.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assigned []policy.Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		assigned = append(assigned, policy.Role(raw))
	}
	return assigned, rows.Err()
}

// ListAssignments returns full assignment rows for a user.
func (r *PGRepository) ListAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, role, created_at FROM user_roles WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		var raw string
		if err := rows.Scan(&a.ID, &a.UserID, &raw, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = policy.Role(raw)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Insert adds a role assignment. Re-inserting an existing pair is a no-op;
// the unique constraint on (user_id, role) keeps the set a set.
func (r *PGRepository) Insert(ctx context.Context, userID int64, role policy.Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`, userID, string(role))
	return err
}

// Delete removes a role assignment.
func (r *PGRepository) Delete(ctx context.Context, userID int64, role policy.Role) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: role assignment", shared.ErrNotFound)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
