package auth

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Canonical role names. RoleAdmin is the full-access role guarded by the
// last-administrator invariant; RoleUser is the registration default.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleUser    = "USER"
)

// PermissionKey is the wire form of an (action, subject) pair, e.g.
// "read:report".
func PermissionKey(action, subject string) string {
	return fmt.Sprintf("%s:%s", action, subject)
}

// HasRole reports whether the principal's role name is in the allow-list.
func HasRole(p *Principal, allowedRoles []string) bool {
	if p == nil {
		return false
	}
	for _, name := range allowedRoles {
		if p.Role == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the permission set explicitly contains the
// (action, subject) pair. No wildcard or inheritance semantics.
func HasPermission(permissions []string, action, subject string) bool {
	key := PermissionKey(action, subject)
	for _, p := range permissions {
		if p == key {
			return true
		}
	}
	return false
}

// PermissionResolver looks up the current permission set of a role name.
type PermissionResolver interface {
	RolePermissions(roleName string) ([]string, error)
}

// Guard builds route middleware for the two gate models the API supports:
// role allow-lists and explicit permission lookups. A request without a
// principal in context is rejected 401; a known principal failing the gate
// is rejected 403.
type Guard struct {
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewGuard(resolver PermissionResolver, logger *slog.Logger) *Guard {
	return &Guard{
		resolver: resolver,
		logger:   logger,
	}
}

// RequireRoles gates a route on role name membership.
func (g *Guard) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !HasRole(principal, allowedRoles) {
				g.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", principal.ID,
					"role", principal.Role,
					"allowed_roles", allowedRoles)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission gates a route on an explicit (action, subject) pair.
// The permission set is resolved from the store for the claimed role name,
// so edits to a role's permissions apply without reissuing tokens.
func (g *Guard) RequirePermission(action, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			permissions, err := g.resolver.RolePermissions(principal.Role)
			if err != nil {
				g.logger.ErrorContext(r.Context(), "permission lookup failed",
					"error", err,
					"user_id", principal.ID,
					"role", principal.Role)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !HasPermission(permissions, action, subject) {
				g.logger.WarnContext(r.Context(), "access denied: missing permission",
					"user_id", principal.ID,
					"role", principal.Role,
					"required_action", action,
					"required_subject", subject)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
