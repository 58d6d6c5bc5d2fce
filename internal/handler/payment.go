package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chopchop-pos/order-engine/internal/order"
	"github.com/chopchop-pos/order-engine/internal/payment"
)

// PaymentHandler exposes settlement and QR payload generation.
type PaymentHandler struct {
	payments *payment.Service
	engine   *order.Engine
}

func NewPaymentHandler(payments *payment.Service, engine *order.Engine) *PaymentHandler {
	return &PaymentHandler{payments: payments, engine: engine}
}

func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req payment.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderNumber == "" {
		http.Error(w, "order_number is required", http.StatusBadRequest)
		return
	}

	result, err := h.payments.Settle(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type qrPayloadResponse struct {
	OrderNumber string `json:"order_number"`
	Payload     string `json:"payload"`
}

// QRPayload returns the string the presentation layer encodes into a QR
// image.
func (h *PaymentHandler) QRPayload(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	o, err := h.engine.GetByNumber(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, qrPayloadResponse{
		OrderNumber: o.Number,
		Payload:     h.payments.QRPayload(o),
	})
}
