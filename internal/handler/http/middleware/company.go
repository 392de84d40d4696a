package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
)

// RequireCompany rejects tokens that carry no company_id claim.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := jwt.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
