package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayRunHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)

	// Lifecycle
	Generate(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	Rollback(w http.ResponseWriter, r *http.Request)

	ListPayrolls(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Disbursements(w http.ResponseWriter, r *http.Request)
}

type payRunHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayRunHandler(payrollService payroll.PayrollService) PayRunHandler {
	return &payRunHandlerImpl{payrollService: payrollService}
}

func (h *payRunHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.CreatePayRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pay run created", result)
}

func (h *payRunHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetPayRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payRunHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListPayRuns(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}

// ========== LIFECYCLE ==========

func (h *payRunHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll generated", result)
}

func (h *payRunHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.Finalize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay run finalized", result)
}

func (h *payRunHandlerImpl) Rollback(w http.ResponseWriter, r *http.Request) {
	var req payroll.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Rollback(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay run rolled back", result)
}

// ========== ROWS & DOWNSTREAM ==========

func (h *payRunHandlerImpl) ListPayrolls(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListPayrolls(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}

func (h *payRunHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payRunHandlerImpl) Disbursements(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetDisbursements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
