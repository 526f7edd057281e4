// README: Trip handlers for closing a trip and finalizing or overriding its payout.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/trip"
	"nemt/internal/types"
)

type TripService interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	Close(ctx context.Context, cmd trip.CloseCommand) error
	FinalizePayout(ctx context.Context, id types.ID) (payout.Result, error)
	OverridePayout(ctx context.Context, cmd trip.OverrideCommand) error
}

type TripHandler struct {
	trip TripService
}

func NewTripHandler(svc TripService) *TripHandler {
	return &TripHandler{trip: svc}
}

func tripIDParam(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid trip id")
		return "", false
	}
	return types.ID(id), true
}

// actorID reads the optional X-Actor-ID header set by the dispatch console.
func actorID(c *gin.Context) *types.ID {
	v := c.GetHeader("X-Actor-ID")
	if !isValidID(v) {
		return nil
	}
	id := types.ID(v)
	return &id
}

func (h *TripHandler) Get(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}
	t, err := h.trip.Get(c.Request.Context(), id)
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

type closeTripReq struct {
	Status        string           `json:"status"`
	DistanceMiles *decimal.Decimal `json:"distanceMiles"`
}

func (h *TripHandler) Close(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}
	var req closeTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	err := h.trip.Close(c.Request.Context(), trip.CloseCommand{
		TripID:        id,
		Status:        trip.Status(req.Status),
		DistanceMiles: req.DistanceMiles,
		ActorType:     "dispatcher",
		ActorID:       actorID(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"trip_id": id, "status": req.Status})
}

func (h *TripHandler) Finalize(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}
	res, err := h.trip.FinalizePayout(c.Request.Context(), id)
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

type overridePayoutReq struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

func (h *TripHandler) OverridePayout(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}
	var req overridePayoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Reason == "" {
		writeError(c, http.StatusBadRequest, "missing reason")
		return
	}
	err := h.trip.OverridePayout(c.Request.Context(), trip.OverrideCommand{
		TripID:  id,
		Amount:  req.Amount,
		ActorID: actorID(c),
		Reason:  req.Reason,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"trip_id": id, "amount": types.RoundCents(req.Amount)})
}
