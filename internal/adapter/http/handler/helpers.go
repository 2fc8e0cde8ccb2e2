package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/folio/internal/adapter/http/dto"
	"github.com/iho/folio/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoHoldings):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTicker),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidVolume),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidCosts),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrMissingExternalID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPriceUnavailable),
		errors.Is(err, domain.ErrConversionUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an RFC 3339 or date-only query parameter. A
// missing value yields the zero time; a malformed value is an error so a
// typo'd date never silently resolves to "now".
func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD, got %q", key, val)
}
