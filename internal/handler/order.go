package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/order"
)

const dateLayout = "2006-01-02"

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	engine *order.Engine
}

func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

type orderResponse struct {
	*order.Order
	Totals order.Totals `json:"totals"`
}

func (h *OrderHandler) respondOrder(w http.ResponseWriter, status int, o *order.Order) {
	writeJSON(w, status, orderResponse{Order: o, Totals: h.engine.OrderTotals(o)})
}

type createOrderRequest struct {
	Origin       order.Origin      `json:"origin"`
	CustomerName string            `json:"customer_name"`
	Lines        []order.LineInput `json:"lines"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Origin == "" {
		req.Origin = order.OriginCustomerSelf
	}
	if req.Origin != order.OriginCustomerSelf && req.Origin != order.OriginCashierAssisted {
		http.Error(w, "invalid order origin", http.StatusBadRequest)
		return
	}

	o, err := h.engine.CreateOrder(r.Context(), req.Origin, req.CustomerName, req.Lines)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusCreated, o)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.engine.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from date", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to date", http.StatusBadRequest)
		return
	}

	orders, err := h.engine.ListByDateRange(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]orderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, orderResponse{Order: &orders[i], Totals: h.engine.OrderTotals(&orders[i])})
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *OrderHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var input order.LineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.engine.AddLine(r.Context(), chi.URLParam(r, "number"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *OrderHandler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.FromString(chi.URLParam(r, "lineID"))
	if err != nil {
		http.Error(w, "invalid line id", http.StatusBadRequest)
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.engine.SetLineQuantity(r.Context(), chi.URLParam(r, "number"), lineID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *OrderHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.FromString(chi.URLParam(r, "lineID"))
	if err != nil {
		http.Error(w, "invalid line id", http.StatusBadRequest)
		return
	}

	o, err := h.engine.RemoveLine(r.Context(), chi.URLParam(r, "number"), lineID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.engine.Transition(r.Context(), chi.URLParam(r, "number"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}
