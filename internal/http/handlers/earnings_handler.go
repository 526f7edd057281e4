// README: Earnings and billing report handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nemt/internal/modules/earnings"
	"nemt/internal/types"
)

type EarningsService interface {
	Location() *time.Location
	DriverEarnings(ctx context.Context, q earnings.Query) ([]earnings.LeaderboardEntry[types.ID], error)
	DriverSummary(ctx context.Context, driverID types.ID, q earnings.Query) (earnings.DriverEarningsSummary, error)
	HourlyHistogram(ctx context.Context, q earnings.Query) (earnings.Histogram, error)
	PatientFrequency(ctx context.Context, q earnings.Query) ([]earnings.Entry[types.ID], error)
	FacilityBilling(ctx context.Context, q earnings.Query) ([]earnings.LeaderboardEntry[types.ID], error)
	ContractorBilling(ctx context.Context, q earnings.Query) ([]earnings.LeaderboardEntry[types.ID], error)
}

type EarningsHandler struct {
	earnings EarningsService
}

func NewEarningsHandler(svc EarningsService) *EarningsHandler {
	return &EarningsHandler{earnings: svc}
}

const maxReportLimit = 500

// query reads start, end, limit and deductions. start and end are
// YYYY-MM-DD in the service's time zone, both inclusive.
func (h *EarningsHandler) query(c *gin.Context) (earnings.Query, bool) {
	r, err := earnings.ParseDateRange(c.Query("start"), c.Query("end"), h.earnings.Location())
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid date range: "+err.Error())
		return earnings.Query{}, false
	}
	q := earnings.Query{Range: r}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxReportLimit {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return earnings.Query{}, false
		}
		q.Limit = n
	}
	if v := c.Query("deductions"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid deductions flag")
			return earnings.Query{}, false
		}
		q.ApplyDeductions = on
	}
	return q, true
}

func (h *EarningsHandler) Drivers(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.DriverEarnings(c.Request.Context(), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": out})
}

func (h *EarningsHandler) Driver(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.DriverSummary(c.Request.Context(), types.ID(id), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *EarningsHandler) Hourly(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.HourlyHistogram(c.Request.Context(), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *EarningsHandler) Patients(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.PatientFrequency(c.Request.Context(), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"patients": out})
}

func (h *EarningsHandler) Facilities(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.FacilityBilling(c.Request.Context(), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"facilities": out})
}

func (h *EarningsHandler) Contractors(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	out, err := h.earnings.ContractorBilling(c.Request.Context(), q)
	if err != nil {
		writeEarningsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"contractors": out})
}
