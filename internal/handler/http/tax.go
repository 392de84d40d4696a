package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TaxHandler interface {
	Save(w http.ResponseWriter, r *http.Request)
	Activate(w http.ResponseWriter, r *http.Request)
	GetActive(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type taxHandlerImpl struct {
	taxService          tax.TaxService
	defaultJurisdiction string
}

func NewTaxHandler(taxService tax.TaxService, defaultJurisdiction string) TaxHandler {
	return &taxHandlerImpl{taxService: taxService, defaultJurisdiction: defaultJurisdiction}
}

func (h *taxHandlerImpl) jurisdiction(r *http.Request) string {
	if j := strings.TrimSpace(r.URL.Query().Get("jurisdiction")); j != "" {
		return strings.ToUpper(j)
	}
	return h.defaultJurisdiction
}

func (h *taxHandlerImpl) Save(w http.ResponseWriter, r *http.Request) {
	var req tax.SaveConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.taxService.SaveConfiguration(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Tax configuration saved", result)
}

func (h *taxHandlerImpl) Activate(w http.ResponseWriter, r *http.Request) {
	result, err := h.taxService.ActivateConfiguration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tax configuration activated", result)
}

func (h *taxHandlerImpl) GetActive(w http.ResponseWriter, r *http.Request) {
	result, err := h.taxService.GetActiveConfiguration(r.Context(), h.jurisdiction(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *taxHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	jurisdiction := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("jurisdiction")))

	result, err := h.taxService.ListConfigurations(r.Context(), jurisdiction)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessList(w, result, len(result))
}
