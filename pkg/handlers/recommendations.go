package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/services"
	"github.com/rentpulse/pricing-engine/pkg/services/workqueue"
)

// RecommendationDay is the wire shape for a single recommended night.
type RecommendationDay struct {
	Dt       string  `json:"dt"`
	RecPrice float64 `json:"rec_price"`
	ConfLow  float64 `json:"conf_low"`
	ConfHigh float64 `json:"conf_high"`
	Reason   string  `json:"reason"`
}

// RecommendationsResponse is the wire shape for a recommendation window.
type RecommendationsResponse struct {
	ListingID string              `json:"listing_id"`
	From      string              `json:"from"`
	To        string              `json:"to"`
	Days      []RecommendationDay `json:"days"`
}

// RecommendationHandler serves the gap-filling recommendation read path and
// background window refreshes.
type RecommendationHandler struct {
	recSvc     services.RecommendationService
	queue      *workqueue.Queue
	windowDays int
	logger     *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler. windowDays
// sets the default query window when the caller omits from/to.
func NewRecommendationHandler(recSvc services.RecommendationService, queue *workqueue.Queue, windowDays int, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{recSvc: recSvc, queue: queue, windowDays: windowDays, logger: logger}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/listings/{lid}/recommendations", h.Get)
	mux.HandleFunc("POST /api/listings/{lid}/recommendations/refresh", h.Refresh)
}

// Get handles GET /api/listings/{lid}/recommendations?from=&to=.
// Missing days in the window are materialized before responding, so the
// response always covers the full window.
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID, ok := ParseListingID(w, r, h.logger)
	if !ok {
		return
	}

	from, to, ok := ParseDateRange(w, r, h.windowDays, h.logger)
	if !ok {
		return
	}

	recs, err := h.recSvc.GetRecommendations(r.Context(), listingID, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "listing_not_found", "Listing not found")
			return
		}
		h.logger.Error("Failed to get recommendations",
			zap.String("listing_id", listingID.String()),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get recommendations")
		return
	}

	response := RecommendationsResponse{
		ListingID: listingID.String(),
		From:      from.Format(dateLayout),
		To:        to.Format(dateLayout),
		Days:      toRecommendationDays(recs),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode recommendations response", zap.Error(err))
	}
}

// Refresh handles POST /api/listings/{lid}/recommendations/refresh.
// It enqueues a background materialization of the window, replacing any
// existing rows.
func (h *RecommendationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	listingID, ok := ParseListingID(w, r, h.logger)
	if !ok {
		return
	}

	from, to, ok := ParseDateRange(w, r, h.windowDays, h.logger)
	if !ok {
		return
	}

	task := services.NewMaterializeTask(h.recSvc, listingID, from, to, true)
	h.queue.Enqueue(task)

	h.logger.Info("materialization dispatched",
		zap.String("listing_id", listingID.String()),
		zap.String("task_id", task.ID()))

	if err := WriteJSON(w, http.StatusAccepted, map[string]interface{}{"ok": true, "task_id": task.ID()}); err != nil {
		h.logger.Error("Failed to encode refresh response", zap.Error(err))
	}
}

func toRecommendationDays(recs []*models.Recommendation) []RecommendationDay {
	days := make([]RecommendationDay, 0, len(recs))
	for _, rec := range recs {
		days = append(days, RecommendationDay{
			Dt:       rec.Dt.Format(dateLayout),
			RecPrice: rec.RecPrice,
			ConfLow:  rec.ConfLow,
			ConfHigh: rec.ConfHigh,
			Reason:   rec.Reason,
		})
	}
	return days
}
