package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"spendsense/internal/domain"
	"spendsense/internal/pipeline"
	"spendsense/internal/repository"
	"spendsense/internal/service"
	"spendsense/pkg/crypto"
)

type APIHandler struct {
	insights       *service.InsightService
	signer         *crypto.Signer
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	insights *service.InsightService,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		insights:       insights,
		signer:         signer,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type RefreshRequest struct {
	UserID string `json:"user_id"`
	AsOf   string `json:"as_of,omitempty"`
}

type RefreshResponse struct {
	UserID          string `json:"user_id"`
	Persona         string `json:"persona"`
	Window          string `json:"window"`
	Recommendations int    `json:"recommendations"`
	Rejected        int    `json:"rejected_items"`
	Message         string `json:"message,omitempty"`
}

type TraceAuditResponse struct {
	Trace          *domain.DecisionTrace `json:"trace"`
	SignatureValid bool                  `json:"signature_valid"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// RefreshHandler runs the full pipeline for one user and publishes the
// resulting bundle. A failed run publishes nothing; any previously
// published bundle stays current.
func (h *APIHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.UserID == "" {
		h.sendError(w, "user_id is required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			h.sendError(w, "as_of must be RFC 3339", http.StatusBadRequest, "VALIDATION_ERROR")
			return
		}
		asOf = parsed.UTC()
	}

	bundle, err := h.insights.Refresh(ctx, req.UserID, asOf)
	if err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) && runErr.Code == pipeline.ReasonIntegrityFailure {
			h.sendError(w, fmt.Sprintf("Run rejected: %v", runErr.Err), http.StatusUnprocessableEntity, "INTEGRITY_FAILURE")
			return
		}
		h.logger.Error("Insight refresh failed",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID))
		h.sendError(w, fmt.Sprintf("Refresh failed: %v", err), http.StatusInternalServerError, "PROCESSING_ERROR")
		return
	}

	primary := bundle.Personas[bundle.PrimaryWindow]
	response := RefreshResponse{
		UserID:          bundle.UserID,
		Persona:         string(primary.Persona),
		Window:          bundle.PrimaryWindow.Label(),
		Recommendations: len(bundle.Recommendations),
		Rejected:        len(bundle.Rejected),
		Message:         "Insights refreshed successfully",
	}

	h.sendJSON(w, response, http.StatusCreated)
	h.logger.Info("Insights refreshed",
		slog.String("user_id", bundle.UserID),
		slog.String("persona", string(primary.Persona)),
		slog.Int("recommendations", len(bundle.Recommendations)))
}

// GetInsightsHandler returns the full published bundle for a user,
// including signals and persona assignments for every window.
func (h *APIHandler) GetInsightsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.sendError(w, "user_id is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	bundle, err := h.insights.Bundle(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "No insights published for user", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to get insights", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	h.sendJSON(w, bundle, http.StatusOK)
}

// GetRecommendationsHandler returns only the ranked recommendations from
// the published bundle, the consumer-facing slice of it.
func (h *APIHandler) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.sendError(w, "user_id is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	bundle, err := h.insights.Bundle(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "No insights published for user", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to get recommendations", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	h.sendJSON(w, bundle.Recommendations, http.StatusOK)
}

// GetTraceHandler is the operator audit view: the stored decision trace
// for one recommendation plus a fresh verification of its signature.
func (h *APIHandler) GetTraceHandler(w http.ResponseWriter, r *http.Request) {
	recommendationID := r.URL.Query().Get("recommendation_id")
	if recommendationID == "" {
		h.sendError(w, "recommendation_id is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	trace, err := h.insights.Trace(ctx, recommendationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Trace not found", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to get trace", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	valid, verifyErr := h.verifyTrace(trace)
	if verifyErr != nil {
		h.logger.Warn("Trace signature verification failed",
			slog.String("recommendation_id", recommendationID),
			slog.String("error", verifyErr.Error()))
	}

	h.sendJSON(w, TraceAuditResponse{Trace: trace, SignatureValid: valid}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

// verifyTrace re-derives the signed payload by marshaling the trace with
// its signature blanked, the same bytes the recorder signed.
func (h *APIHandler) verifyTrace(trace *domain.DecisionTrace) (bool, error) {
	unsigned := *trace
	unsigned.Signature = ""

	payload, err := json.Marshal(unsigned)
	if err != nil {
		return false, err
	}

	return h.signer.VerifyTrace(trace.RecommendationID, payload, trace.Timestamp.Unix(), trace.Signature)
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/insights/refresh", h.RefreshHandler)
	mux.HandleFunc("GET /api/v1/insights", h.GetInsightsHandler)
	mux.HandleFunc("GET /api/v1/recommendations", h.GetRecommendationsHandler)
	mux.HandleFunc("GET /api/v1/operator/traces", h.GetTraceHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
