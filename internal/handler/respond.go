package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/menu"
	"github.com/chopchop-pos/order-engine/internal/order"
	"github.com/chopchop-pos/order-engine/internal/payment"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("handler: failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine errors onto HTTP statuses. Settlement outcomes
// stay distinct so clients never have to collapse them.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrLineNotFound),
		errors.Is(err, menu.ErrMenuItemNotFound),
		errors.Is(err, invoice.ErrInvoiceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrOrderNotEditable),
		errors.Is(err, payment.ErrAlreadySettled),
		errors.Is(err, invoice.ErrOrderNotPaid):
		status = http.StatusConflict
	case errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrMenuItemUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, payment.ErrInsufficientPayment),
		errors.Is(err, payment.ErrPaymentDeclined):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrConcurrencyConflict):
		// The caller retries the whole operation.
		status = http.StatusConflict
	default:
		log.Error().Err(err).Msg("handler: internal error")
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
