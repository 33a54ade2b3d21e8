package roles

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/shared"
)

// Auditor records role management actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the role store on top of the assignment repository.
type Service struct {
	repo   Repository
	engine *policy.Engine
	audit  Auditor
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, engine *policy.Engine, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, audit: audit, logger: logger}
}

// AssignDefault grants the base user role. Called on first authentication;
// idempotent, so replays of the provisioning hook are harmless.
func (s *Service) AssignDefault(ctx context.Context, userID int64) error {
	return s.repo.Insert(ctx, userID, policy.RoleUser)
}

// EffectiveRole returns the single highest-priority role assigned to the
// user, defaulting to user when no assignment exists.
func (s *Service) EffectiveRole(ctx context.Context, userID int64) (policy.Role, error) {
	assigned, err := s.repo.ListRoles(ctx, userID)
	if err != nil {
		return "", err
	}
	return policy.EffectiveRole(assigned), nil
}

// ListAssignments returns a user's assignments, admin only.
func (s *Service) ListAssignments(ctx context.Context, actor policy.Principal, userID int64) ([]Assignment, error) {
	if err := s.engine.Authorize(actor, policy.KindRoleAssignment, policy.ActionRead, nil); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, userID)
}

// Assign grants a role to a user, admin only.
func (s *Service) Assign(ctx context.Context, actor policy.Principal, userID int64, role policy.Role) error {
	if err := s.engine.Authorize(actor, policy.KindRoleAssignment, policy.ActionCreate, nil); err != nil {
		return err
	}
	if _, err := policy.ParseRole(string(role)); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "role.assign", userID, role)
	return nil
}

// Revoke removes a role from a user, admin only.
func (s *Service) Revoke(ctx context.Context, actor policy.Principal, userID int64, role policy.Role) error {
	if err := s.engine.Authorize(actor, policy.KindRoleAssignment, policy.ActionDelete, nil); err != nil {
		return err
	}
	if _, err := policy.ParseRole(string(role)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "role.revoke", userID, role)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor policy.Principal, action string, userID int64, role policy.Role) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "user_role",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role": string(role)},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record role audit", slog.Any("error", err))
	}
}
