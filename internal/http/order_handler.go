package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/service"
)

type OrderHandler struct {
	orders  *service.OrderService
	timeout time.Duration
}

func NewOrderHandler(orders *service.OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ProductID string            `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

type CreateOrderRequestDTO struct {
	Items   []OrderItemDTO `json:"items"`
	Message string         `json:"message"`
	Channel string         `json:"channel"`
}

type CheckoutRequestDTO struct {
	Message string `json:"message"`
	Channel string `json:"channel"`
}

type ConfirmPaymentRequestDTO struct {
	PaymentID string `json:"payment_id"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())
	if customerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing customer authentication")
		return
	}

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	requests := make([]service.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		requests[i] = service.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Options:   item.Options,
		}
	}

	order, err := h.orders.CreateOrder(ctx, customerID, requests, req.Message, req.Channel)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	order, err := h.orders.Checkout(ctx, chi.URLParam(r, "cart_id"), req.Message, req.Channel)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())
	if customerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing customer authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, customerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "payment_id must not be empty")
		return
	}

	order, err := h.orders.ConfirmPayment(ctx, chi.URLParam(r, "order_id"), req.PaymentID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.orders.FailPayment)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.orders.CancelOrder)
}

func (h *OrderHandler) ConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.orders.ConfirmPurchase)
}

func (h *OrderHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.orders.RequestRefund)
}

func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.orders.Refund)
}

// applyTransition handles the bodyless status-change endpoints which differ
// only in the service call they make.
func (h *OrderHandler) applyTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := op(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
