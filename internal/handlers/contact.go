package handlers

import (
	"context"
	"net/http"

	"github.com/richmondazadze/scantotap-sub001/internal/notify"
)

type EmailSender interface {
	Contact(ctx context.Context, req notify.ContactRequest) (string, error)
	OrderEmail(ctx context.Context, req notify.OrderEmailRequest) (notify.OrderEmailResult, error)
}

// EmailHandler exposes the contact form and the order email trigger.
type EmailHandler struct {
	Notifier EmailSender
}

type contactResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ReferenceID string `json:"referenceId"`
}

func (h *EmailHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req notify.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	ref, err := h.Notifier.Contact(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, contactResponse{
		Success:     true,
		Message:     "Thanks for reaching out, we will get back to you soon",
		ReferenceID: ref,
	})
}

type orderEmailResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

func (h *EmailHandler) OrderEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req notify.OrderEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.Notifier.OrderEmail(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orderEmailResponse{Success: true, ID: res.ID, Skipped: res.Skipped})
}
