package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

// Handler exposes the matching core's administrative operations over
// HTTP. Donor and request CRUD belong to other services; this surface
// only starts, stops, and observes matching.
type Handler struct {
	matching matching.Service
	logger   *slog.Logger
}

func NewHandler(svc matching.Service, logger *slog.Logger) *Handler {
	return &Handler{
		matching: svc,
		logger:   logger,
	}
}

// Routes registers all handlers on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/matching/{requestID}/start", h.startMatching)
	mux.HandleFunc("DELETE /api/v1/matching/{requestID}", h.stopMatching)
	mux.HandleFunc("POST /api/v1/matching/{requestID}/responses", h.recordResponse)
	mux.HandleFunc("GET /api/v1/matching/stats", h.getStatistics)
	mux.HandleFunc("GET /healthz", h.health)

	return mux
}

type startMatchingResponse struct {
	ProcessID uuid.UUID `json:"process_id"`
	RequestID uuid.UUID `json:"request_id"`
}

func (h *Handler) startMatching(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathUUID(w, r, "requestID")
	if !ok {
		return
	}

	processID, err := h.matching.StartMatching(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, startMatchingResponse{
		ProcessID: processID,
		RequestID: requestID,
	})
}

type stopMatchingResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Stopped   bool      `json:"stopped"`
}

func (h *Handler) stopMatching(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathUUID(w, r, "requestID")
	if !ok {
		return
	}

	stopped, err := h.matching.StopMatching(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !stopped {
		h.writeError(w, r, errors.ErrProcessNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, stopMatchingResponse{
		RequestID: requestID,
		Stopped:   true,
	})
}

type recordResponseRequest struct {
	DonorID  uuid.UUID `json:"donor_id"`
	Positive bool      `json:"positive"`
}

func (h *Handler) recordResponse(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathUUID(w, r, "requestID")
	if !ok {
		return
	}

	var body recordResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_BODY", "request body must be valid JSON"))
		return
	}
	if body.DonorID == uuid.Nil {
		h.writeError(w, r, errors.NewValidationError("MISSING_DONOR_ID", "donor_id is required"))
		return
	}

	if err := h.matching.RecordResponse(r.Context(), requestID, body.DonorID, body.Positive); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.matching.GetStatistics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_REQUEST_ID", "request ID must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetStatusCode(err)
	if status >= 500 {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}

	body := errorResponse{Error: errorBody{
		Type:    "internal",
		Code:    "INTERNAL_ERROR",
		Message: "internal error",
	}}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Error = errorBody{
			Type:    string(appErr.Type),
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encoding failed", "error", err)
	}
}
