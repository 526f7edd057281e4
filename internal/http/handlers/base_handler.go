// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nemt/internal/maps"
	"nemt/internal/modules/earnings"
	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/modules/trip"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

// fieldError is one tier validation problem, addressed for an edit form.
type fieldError struct {
	Level   rates.ServiceLevel `json:"level,omitempty"`
	Index   int                `json:"index"`
	Field   string             `json:"field"`
	Kind    string             `json:"kind"`
	Message string             `json:"message"`
}

// isValidID accepts the record ids used across trips, drivers and facilities.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// fieldErrors flattens TierErrors; nil when err carries none.
func fieldErrors(err error) []fieldError {
	var errs rates.TierErrors
	if !errors.As(err, &errs) {
		var one *rates.TierError
		if !errors.As(err, &one) {
			return nil
		}
		errs = rates.TierErrors{one}
	}
	out := make([]fieldError, len(errs))
	for i, e := range errs {
		out[i] = fieldError{Level: e.Level, Index: e.Index, Field: e.Field, Kind: e.Kind.Error(), Message: e.Message}
	}
	return out
}

// asMalformed tags a body decode failure so it maps to 400.
func asMalformed(err error) error {
	if errors.Is(err, rates.ErrMalformedEncoding) {
		return err
	}
	return fmt.Errorf("%w: %v", rates.ErrMalformedEncoding, err)
}

func writeRatesError(c *gin.Context, err error) {
	if fields := fieldErrors(err); fields != nil {
		writeJSON(c, http.StatusUnprocessableEntity, errorResponse{Error: "invalid rate profile", Fields: fields})
		return
	}
	switch {
	case errors.Is(err, rates.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, rates.ErrMalformedEncoding),
		errors.Is(err, rates.ErrUnknownOwnerKind),
		errors.Is(err, rates.ErrUnknownServiceLevel):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rates.ErrNotSingleTier),
		errors.Is(err, rates.ErrTierIndex),
		errors.Is(err, rates.ErrLastTier):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writePayoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payout.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, maps.ErrNoRoute):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, payout.ErrQuoteUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrInvalidState), errors.Is(err, trip.ErrConflict),
		errors.Is(err, trip.ErrNotClosed), errors.Is(err, trip.ErrNoDriver):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeEarningsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, earnings.ErrInvalidRange):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
