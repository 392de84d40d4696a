package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ChallanHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
}

type challanHandlerImpl struct {
	challanService challan.ChallanService
}

func NewChallanHandler(challanService challan.ChallanService) ChallanHandler {
	return &challanHandlerImpl{challanService: challanService}
}

func (h *challanHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var filter challan.ListFilter
	details := map[string]string{}

	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			details["month"] = "must be a number"
		}
		filter.Month = &month
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			details["year"] = "must be a number"
		}
		filter.Year = &year
	}
	if len(details) > 0 {
		response.BadRequest(w, "Invalid query parameters", details)
		return
	}

	result, err := h.challanService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}

func (h *challanHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req challan.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.challanService.MarkPaid(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Statutory challan paid", result)
}
