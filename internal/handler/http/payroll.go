package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Settings
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)

	// Components
	CreateComponent(w http.ResponseWriter, r *http.Request)
	ListComponents(w http.ResponseWriter, r *http.Request)
	DeleteComponent(w http.ResponseWriter, r *http.Request)

	// Periods
	CreatePeriod(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)

	// Payroll rows
	GetPayroll(w http.ResponseWriter, r *http.Request)
	UpdatePayroll(w http.ResponseWriter, r *http.Request)
	ApprovePayroll(w http.ResponseWriter, r *http.Request)
	RecalculatePayroll(w http.ResponseWriter, r *http.Request)
	ListAuditLogs(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== SETTINGS ==========

func (h *payrollHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetSettings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdatePayrollSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.UpdateSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll settings updated", result)
}

// ========== COMPONENTS ==========

func (h *payrollHandlerImpl) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateComponent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary component created", result)
}

func (h *payrollHandlerImpl) ListComponents(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListComponents(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}

func (h *payrollHandlerImpl) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.payrollService.DeleteComponent(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary component deleted", nil)
}

// ========== PERIODS ==========

func (h *payrollHandlerImpl) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreatePeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll period created", result)
}

func (h *payrollHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListPeriods(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}

// ========== PAYROLL ROWS ==========

func (h *payrollHandlerImpl) GetPayroll(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetPayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdatePayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdatePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.UpdatePayroll(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll updated", result)
}

func (h *payrollHandlerImpl) ApprovePayroll(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ApprovePayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll approved", result)
}

func (h *payrollHandlerImpl) RecalculatePayroll(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.RecalculatePayroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll recalculated", result)
}

func (h *payrollHandlerImpl) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListAuditLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}
