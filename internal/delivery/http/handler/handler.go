package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/delivery/http/request"
	"github.com/pmajay/image-verifier/internal/delivery/http/response"
	"github.com/pmajay/image-verifier/internal/usecase"
)

type Handler struct {
	verifier usecase.Verifier
	limits   request.UploadLimits
	logger   *zap.Logger
}

func NewHandler(verifier usecase.Verifier, limits request.UploadLimits, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		verifier: verifier,
		limits:   limits,
		logger:   logger,
	}
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	inputs, err := request.ReadImages(w, r, "image", request.UploadLimits{MaxFileSize: h.limits.MaxFileSize, MaxFiles: 1})
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	result, err := h.verifier.VerifyImage(r.Context(), inputs[0])
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: response.SingleMessage(result),
		Data:    result,
	})
}

func (h *Handler) HandleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	inputs, err := request.ReadImages(w, r, "images", h.limits)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	summary, err := h.verifier.VerifyBatch(r.Context(), inputs)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: summary.Message(),
		Data:    summary,
	})
}

func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.verifier.Get(r.Context(), id)
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		h.writeJSONError(w, "Verification not found", http.StatusNotFound)
		return
	case errors.Is(err, usecase.ErrStoreUnavailable):
		h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		h.logger.Error("failed to get verification", zap.String("id", id), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.Envelope{Success: true, Data: response.FromRecord(rec)})
}

func (h *Handler) HandleListVerifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := h.verifier.ListRecent(r.Context(), limit)
	if errors.Is(err, usecase.ErrStoreUnavailable) {
		h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.logger.Error("failed to list verifications", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]response.VerificationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, response.FromRecord(rec))
	}
	h.writeJSON(w, http.StatusOK, response.Envelope{Success: true, Data: out})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := h.verifier.Health(ctx)
	for _, s := range status {
		if s != "healthy" {
			h.writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, request.ErrFileTooLarge):
		h.writeJSONError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, request.ErrUnsupportedType):
		h.writeJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, request.ErrNoFiles),
		errors.Is(err, request.ErrTooManyFiles),
		errors.Is(err, request.ErrMalformedForm):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("failed to read upload", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyBatch), errors.Is(err, usecase.ErrTooManyFiles):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeJSONError(w, "Request cancelled", http.StatusServiceUnavailable)
	default:
		h.logger.Error("verification failed", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.Envelope{Success: false, Error: message})
}
