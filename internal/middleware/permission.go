package middleware

import (
	"context"
	"net/http"

	"github.com/nenoreno/jakes-bath-house/internal/rbac"
)

// RoleSource отдаёт сохранённый набор разрешений роли.
type RoleSource interface {
	GetRolePermissions(ctx context.Context, roleName string) ([]string, error)
}

// RequirePermission возвращает middleware, пропускающий запрос только если роль
// текущей сессии обладает указанным разрешением. Решение принимает rbac-пакет:
// super_admin проходит всегда, остальные — по членству в сохранённом наборе.
func RequirePermission(source RoleSource, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			var granted []string
			if session.Role != rbac.RoleSuperAdmin {
				perms, err := source.GetRolePermissions(r.Context(), session.Role)
				if err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				granted = perms
			}

			if !rbac.HasPermission(session.Role, granted, permission) {
				http.Error(w, "access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
