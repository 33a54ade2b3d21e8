package policy

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/harborstay/harborstay/internal/platform/httpx"
	"github.com/harborstay/harborstay/internal/shared"
)

// RoleSource resolves the effective role for a user.
type RoleSource interface {
	EffectiveRole(ctx context.Context, userID int64) (Role, error)
}

// Middleware attaches the request principal resolved from the session.
type Middleware struct {
	Roles  RoleSource
	Logger *slog.Logger
}

// WithPrincipal resolves the session user into a Principal when present.
// Unauthenticated requests pass through without a principal so that public
// endpoints keep working.
func (m Middleware) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.sessionUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		role, err := m.Roles.EffectiveRole(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve effective role", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		ctx := ContextWithPrincipal(r.Context(), Principal{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects requests without an authenticated principal.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects principals whose effective role is not in the allowed set.
func (m Middleware) RequireRole(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthenticated)
				return
			}
			for _, role := range allowed {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, shared.ErrPermissionDenied)
		})
	}
}

func (m Middleware) sessionUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
