package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Request input
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Finalize refused; every issue goes back to the caller
	var payrollErr *payroll.ValidationError
	if errors.As(err, &payrollErr) {
		UnprocessableEntity(w, "PAYROLL_VALIDATION_FAILED", payrollErr.Error(), payrollErr.Issues)
		return
	}

	var configErr *tax.ConfigurationError
	if errors.As(err, &configErr) {
		UnprocessableEntity(w, "CONFIGURATION_ERROR", configErr.Error(), nil)
		return
	}

	var transitionErr *payroll.StateTransitionError
	if errors.As(err, &transitionErr) {
		InvalidStateTransition(w, transitionErr.Error())
		return
	}

	switch {
	case errors.Is(err, payroll.ErrLocked):
		Locked(w, err.Error())

	// Identity
	case errors.Is(err, jwt.ErrMissingCompany):
		Forbidden(w, "Company membership required")
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid access token")

	// Not found
	case errors.Is(err, payroll.ErrNotFound):
		NotFound(w, capitalize(err.Error()))
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, challan.ErrChallanNotFound):
		NotFound(w, "Statutory challan not found")
	case errors.Is(err, tax.ErrConfigurationNotFound):
		NotFound(w, "Tax configuration not found")

	// Conflicts
	case errors.Is(err, payroll.ErrPayRunExists):
		Conflict(w, "A pay run already exists for this period")
	case errors.Is(err, payroll.ErrComponentNameExists):
		Conflict(w, "Salary component name already exists")
	case errors.Is(err, payroll.ErrPayRunBusy):
		Conflict(w, "Another operation is running on this pay run")
	case errors.Is(err, challan.ErrChallanAlreadyPaid):
		Conflict(w, "Statutory challan already paid")
	case errors.Is(err, challan.ErrInvalidStatusAdvance):
		Conflict(w, "Statutory challan status can only move forward")

	case errors.Is(err, payroll.ErrInvalidRule):
		UnprocessableEntity(w, "CONFIGURATION_ERROR", err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
