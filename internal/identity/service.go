package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/harborstay/harborstay/internal/shared"
)

// RoleProvisioner grants the default role on first authentication.
type RoleProvisioner interface {
	AssignDefault(ctx context.Context, userID int64) error
}

// Service wraps authentication and provisioning business rules.
type Service struct {
	repo  Repository
	roles RoleProvisioner
}

// NewService constructs a new Service.
func NewService(repo Repository, roles RoleProvisioner) *Service {
	return &Service{repo: repo, roles: roles}
}

// Register creates an account with its profile and default role assignment.
// The role grant is idempotent, so a retried registration cannot produce
// duplicate assignments.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", shared.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name required", shared.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.CreateAccount(ctx, email, string(hash), fullName)
	if err != nil {
		return nil, err
	}
	if err := s.roles.AssignDefault(ctx, account.ID); err != nil {
		// The effective-role computation falls back to the base role, so a
		// missing assignment row does not change permissions.
		return nil, fmt.Errorf("assign default role: %w", err)
	}
	return account, nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Profile returns the profile for a user.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.FindProfile(ctx, userID)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
