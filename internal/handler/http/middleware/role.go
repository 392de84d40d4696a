package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleHR      = "hr"
)

// RequireRole allows only the listed roles through.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if !slices.Contains(roles, claims.Role) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' cannot perform this action", claims.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
