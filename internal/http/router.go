package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the full API surface. Auth runs after the request-id
// middleware so unauthorized responses still carry an X-Request-ID.
func NewRouter(cartHandler *CartHandler, orderHandler *OrderHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(MockAuthMiddleware)

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartHandler.CreateCart)
			r.Route("/{cart_id}", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{item_id}", cartHandler.RemoveItem)
				r.Post("/merge", cartHandler.MergeCarts)
				r.Post("/checkout", orderHandler.Checkout)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/", orderHandler.ListOrders)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Post("/payment", orderHandler.ConfirmPayment)
				r.Post("/payment-failure", orderHandler.FailPayment)
				r.Post("/cancel", orderHandler.CancelOrder)
				r.Post("/confirm", orderHandler.ConfirmPurchase)
				r.Post("/refund-request", orderHandler.RequestRefund)
				r.Post("/refund", orderHandler.Refund)
			})
		})
	})

	return r
}
