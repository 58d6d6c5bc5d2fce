package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chopchop-pos/order-engine/internal/handler"
	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/menu"
	"github.com/chopchop-pos/order-engine/internal/order"
	"github.com/chopchop-pos/order-engine/internal/payment"
	"github.com/chopchop-pos/order-engine/internal/report"
)

// Deps are the constructed services the router exposes.
type Deps struct {
	Engine      *order.Engine
	Payments    *payment.Service
	Coordinator *invoice.Coordinator
	Menus       *menu.Service
	Reports     *report.Service
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	orders := handler.NewOrderHandler(deps.Engine)
	payments := handler.NewPaymentHandler(deps.Payments, deps.Engine)
	invoices := handler.NewInvoiceHandler(deps.Coordinator)
	menus := handler.NewMenuHandler(deps.Menus)
	reports := handler.NewReportHandler(deps.Reports)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orders.Create)
		r.Get("/", orders.List)
		r.Route("/{number}", func(r chi.Router) {
			r.Get("/", orders.Get)
			r.Put("/status", orders.UpdateStatus)
			r.Post("/lines", orders.AddLine)
			r.Put("/lines/{lineID}", orders.SetLineQuantity)
			r.Delete("/lines/{lineID}", orders.RemoveLine)
			r.Get("/qr-payload", payments.QRPayload)
			r.Post("/invoice", invoices.Ensure)
			r.Get("/invoice", invoices.Get)
		})
	})

	r.Post("/payments", payments.Settle)

	r.Route("/menus", func(r chi.Router) {
		r.Get("/", menus.List)
		r.Get("/{id}", menus.Get)
		r.Put("/{id}", menus.Update)
		r.Put("/{id}/availability", menus.ToggleAvailability)
	})
	r.Get("/categories", menus.ListCategories)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", reports.Dashboard)
		r.Get("/sales", reports.Sales)
	})

	return r
}
