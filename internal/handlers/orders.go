package handlers

import (
	"net/http"

	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
)

// OrderHandler serves a user's physical card orders.
type OrderHandler struct {
	Inventory *inventory.Service
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Inventory.Orders(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Place checks out an order. Stock is reserved in the same transaction
// that writes the order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req inventory.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	order, err := h.Inventory.PlaceOrder(r.Context(), userIDFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
