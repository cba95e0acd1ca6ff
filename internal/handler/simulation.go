package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/service/simulation"
)

type simulationService interface {
	Simulate(ctx context.Context, req simulation.SimulateRequest) (*domain.PaymentSimulation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.PaymentSimulation, error)
	Discard(ctx context.Context, id uuid.UUID) error
}

type SimulationHandler struct {
	simulations simulationService
}

func NewSimulationHandler(simulations simulationService) *SimulationHandler {
	return &SimulationHandler{simulations: simulations}
}

type simulateRequest struct {
	Date       string   `json:"date"`
	InvoiceIDs []string `json:"invoice_ids"`
}

func (r simulateRequest) parse() (simulation.SimulateRequest, []FieldError) {
	var errs []FieldError
	date, errs := parseDate("date", r.Date, errs)
	ids, errs := parseIDs("invoice_ids", r.InvoiceIDs, errs)
	return simulation.SimulateRequest{Date: date, InvoiceIDs: ids}, errs
}

func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	req, fields := body.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sim, err := h.simulations.Simulate(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("simulation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/simulations/%s", sim.ID))
	RespondSuccess(w, http.StatusCreated, toSimulationDTO(sim))
}

func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sim, err := h.simulations.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSimulationDTO(sim))
}

func (h *SimulationHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.simulations.Discard(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
