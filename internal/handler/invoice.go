package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/invoice"
)

// InvoiceHandler exposes idempotent invoice issuance and lookup.
type InvoiceHandler struct {
	coordinator *invoice.Coordinator
}

func NewInvoiceHandler(coordinator *invoice.Coordinator) *InvoiceHandler {
	return &InvoiceHandler{coordinator: coordinator}
}

type ensureInvoiceRequest struct {
	CashierID *uuid.UUID `json:"cashier_id,omitempty"`
}

func (h *InvoiceHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	var req ensureInvoiceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	inv, err := h.coordinator.EnsureInvoice(r.Context(), chi.URLParam(r, "number"), req.CashierID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.coordinator.GetByOrderNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
