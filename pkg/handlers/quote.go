package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
	"github.com/rentpulse/pricing-engine/pkg/services"
	"github.com/rentpulse/pricing-engine/pkg/services/workqueue"
)

// QuoteRangeRequest asks for per-day LLM quotes over a date range.
type QuoteRangeRequest struct {
	ListingID string `json:"listing_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// QuoteBatchRequest asks for a single-call quote over the next N days.
type QuoteBatchRequest struct {
	ListingID   string `json:"listing_id"`
	HorizonDays int    `json:"horizon_days"`
}

// QuoteAcceptedResponse acknowledges an enqueued quoting task.
type QuoteAcceptedResponse struct {
	OK     bool   `json:"ok"`
	TaskID string `json:"task_id"`
}

// QuoteHandler accepts LLM quoting requests and dispatches them to the work
// queue. Generation runs in the background; callers poll /api/tasks.
type QuoteHandler struct {
	listings   repositories.ListingRepository
	quoteSvc   services.QuoteService
	queue      *workqueue.Queue
	windowDays int
	logger     *zap.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(
	listings repositories.ListingRepository,
	quoteSvc services.QuoteService,
	queue *workqueue.Queue,
	windowDays int,
	logger *zap.Logger,
) *QuoteHandler {
	return &QuoteHandler{
		listings:   listings,
		quoteSvc:   quoteSvc,
		queue:      queue,
		windowDays: windowDays,
		logger:     logger,
	}
}

// RegisterRoutes registers the quote handler's routes on the given mux.
func (h *QuoteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/llm/quote", h.QuoteRange)
	mux.HandleFunc("POST /api/llm/quote/batch", h.QuoteBatch)
}

// QuoteRange handles POST /api/llm/quote.
// Dates default to [today, today+window] when omitted.
func (h *QuoteHandler) QuoteRange(w http.ResponseWriter, r *http.Request) {
	var req QuoteRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	listingID, ok := h.resolveListing(w, r, req.ListingID)
	if !ok {
		return
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.Start != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.Start, time.UTC)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Invalid start date, expected YYYY-MM-DD")
			return
		}
		start = parsed
	}

	end := start.AddDate(0, 0, h.windowDays)
	if req.End != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.End, time.UTC)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = parsed
	}

	task := services.NewQuoteRangeTask(h.quoteSvc, listingID, start, end)
	h.queue.Enqueue(task)

	h.logger.Info("quote range dispatched",
		zap.String("listing_id", listingID.String()),
		zap.String("task_id", task.ID()))

	if err := WriteJSON(w, http.StatusAccepted, QuoteAcceptedResponse{OK: true, TaskID: task.ID()}); err != nil {
		h.logger.Error("Failed to encode quote response", zap.Error(err))
	}
}

// QuoteBatch handles POST /api/llm/quote/batch.
func (h *QuoteHandler) QuoteBatch(w http.ResponseWriter, r *http.Request) {
	var req QuoteBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	listingID, ok := h.resolveListing(w, r, req.ListingID)
	if !ok {
		return
	}

	horizon := req.HorizonDays
	if horizon < 1 {
		horizon = h.windowDays
	}

	task := services.NewQuoteBatchTask(h.quoteSvc, listingID, horizon)
	h.queue.Enqueue(task)

	h.logger.Info("quote batch dispatched",
		zap.String("listing_id", listingID.String()),
		zap.Int("horizon_days", horizon),
		zap.String("task_id", task.ID()))

	if err := WriteJSON(w, http.StatusAccepted, QuoteAcceptedResponse{OK: true, TaskID: task.ID()}); err != nil {
		h.logger.Error("Failed to encode quote response", zap.Error(err))
	}
}

// resolveListing parses the body listing id and verifies it exists, writing
// the error response itself on failure.
func (h *QuoteHandler) resolveListing(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	listingID, err := uuid.Parse(raw)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_listing_id", "Invalid listing ID format")
		return uuid.Nil, false
	}

	if _, err := h.listings.GetByID(r.Context(), listingID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "listing_not_found", "Listing not found")
			return uuid.Nil, false
		}
		h.logger.Error("Failed to check listing", zap.String("listing_id", listingID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to check listing")
		return uuid.Nil, false
	}

	return listingID, true
}
