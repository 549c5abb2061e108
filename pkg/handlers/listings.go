package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/apperrors"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

// ListingHandler serves the listing catalog and availability calendar.
type ListingHandler struct {
	listings   repositories.ListingRepository
	calendar   repositories.CalendarRepository
	windowDays int
	logger     *zap.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listings repositories.ListingRepository, calendar repositories.CalendarRepository, windowDays int, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, calendar: calendar, windowDays: windowDays, logger: logger}
}

// RegisterRoutes registers the listing handler's routes on the given mux.
func (h *ListingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/listings", h.List)
	mux.HandleFunc("GET /api/listings/{lid}", h.Get)
	mux.HandleFunc("GET /api/listings/{lid}/calendar", h.Calendar)
}

// List handles GET /api/listings.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list listings", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list listings")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"listings": listings}); err != nil {
		h.logger.Error("Failed to encode listings response", zap.Error(err))
	}
}

// Get handles GET /api/listings/{lid}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID, ok := ParseListingID(w, r, h.logger)
	if !ok {
		return
	}

	listing, err := h.listings.GetByID(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "listing_not_found", "Listing not found")
			return
		}
		h.logger.Error("Failed to get listing", zap.String("listing_id", listingID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get listing")
		return
	}

	if err := WriteJSON(w, http.StatusOK, listing); err != nil {
		h.logger.Error("Failed to encode listing response", zap.Error(err))
	}
}

// Calendar handles GET /api/listings/{lid}/calendar?from=&to=.
func (h *ListingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	listingID, ok := ParseListingID(w, r, h.logger)
	if !ok {
		return
	}

	exists, err := h.listings.Exists(r.Context(), listingID)
	if err != nil {
		h.logger.Error("Failed to check listing", zap.String("listing_id", listingID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to check listing")
		return
	}
	if !exists {
		_ = ErrorResponse(w, http.StatusNotFound, "listing_not_found", "Listing not found")
		return
	}

	from, to, ok := ParseDateRange(w, r, h.windowDays, h.logger)
	if !ok {
		return
	}

	days, err := h.calendar.ListByListingRange(r.Context(), listingID, from, to)
	if err != nil {
		h.logger.Error("Failed to list calendar", zap.String("listing_id", listingID.String()), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list calendar")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"calendar": days}); err != nil {
		h.logger.Error("Failed to encode calendar response", zap.Error(err))
	}
}
