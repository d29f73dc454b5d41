package handlers

import (
	"net/http"

	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

func inventoryKind(r *http.Request) (models.InventoryKind, error) {
	return inventory.ParseKind(r.PathValue("kind"))
}

func (h *AdminHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := inventoryKind(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := h.Inventory.List(r.Context(), kind, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := inventoryKind(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in inventory.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	item, err := h.Inventory.Create(r.Context(), kind, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *AdminHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := inventoryKind(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in inventory.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	item, err := h.Inventory.Update(r.Context(), kind, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *AdminHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := inventoryKind(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.Inventory.Delete(r.Context(), kind, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Field string `json:"field"`
}

// ToggleInventory flips is_available or has_stock_limit.
func (h *AdminHandler) ToggleInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := inventoryKind(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	item, err := h.Inventory.Toggle(r.Context(), kind, id, req.Field)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
