package handlers

import (
	"net/http"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
)

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.Admin.Orders(r.Context(), admin.ParseQuery(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) OrdersCSV(w http.ResponseWriter, r *http.Request) {
	q := admin.ParseQuery(r.URL.Query())
	h.csv(w, r, "orders", func() error { return h.Admin.ExportOrders(r.Context(), w, q) })
}

type statusRequest struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
}

// UpdateOrderStatus sets an order's status. The customer email goes out in
// the background.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	order, err := h.Admin.UpdateOrderStatus(r.Context(), id, req.Status, req.TrackingNumber)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
