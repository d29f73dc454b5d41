package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
	"github.com/richmondazadze/scantotap-sub001/internal/notify"
	"github.com/richmondazadze/scantotap-sub001/internal/onboarding"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
)

const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Upgrade bool   `json:"upgrade,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// errorStatus maps a service error to its HTTP status. Unknown errors are
// internal.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, profile.ErrPlanLimit):
		return http.StatusPaymentRequired
	case errors.Is(err, profile.ErrInvalidInput),
		errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, notify.ErrInvalidInput),
		errors.Is(err, notify.ErrUnknownEmailType),
		errors.Is(err, admin.ErrInvalidStatus),
		errors.Is(err, platform.ErrUnknownPlatform),
		errors.Is(err, platform.ErrEmptyInput),
		errors.Is(err, platform.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrUsernameTaken),
		errors.Is(err, onboarding.ErrAlreadyOnboarded),
		errors.Is(err, onboarding.ErrWrongStep),
		errors.Is(err, inventory.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, profile.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, admin.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeServiceError reports err with the status errorStatus picks. Internal
// errors are logged and replaced with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "Something went wrong, please try again")
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error(), Upgrade: status == http.StatusPaymentRequired})
}

var errBadRequest = errors.New("bad request")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", errBadRequest)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// formFile reads one optional file field of a multipart request capped at
// maxBytes. A missing field returns a nil file and no error.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: upload too large or malformed", errBadRequest)
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return file, header, nil
}
