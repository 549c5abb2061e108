package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ParseListingID extracts and validates the listing ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: lid
func ParseListingID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "lid", "invalid_listing_id", "Invalid listing ID format", logger)
}

// ParseDateRange reads the from/to query parameters as YYYY-MM-DD dates.
// A missing from defaults to today, a missing to defaults to from+windowDays.
// Inverted bounds are swapped. Returns false after writing an error response
// when a parameter is present but unparseable.
func ParseDateRange(w http.ResponseWriter, r *http.Request, windowDays int, logger *zap.Logger) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			writeDateError(w, "from", logger)
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}

	to := from.AddDate(0, 0, windowDays)
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			writeDateError(w, "to", logger)
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}

	if to.Before(from) {
		from, to = to, from
	}

	return from, to, true
}

func writeDateError(w http.ResponseWriter, param string, logger *zap.Logger) {
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_date", "Invalid "+param+" date, expected YYYY-MM-DD"); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
