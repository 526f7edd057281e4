// README: Payout handlers: resolve against a stored profile, preview against a draft, quote by route.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type PayoutService interface {
	ResolveFor(ctx context.Context, tripID string, trip payout.Trip, owner rates.Owner) (payout.Result, error)
	Preview(trip payout.Trip, profile *rates.RateProfile) payout.Result
	Quote(ctx context.Context, req payout.QuoteRequest) (payout.Quote, error)
}

type PayoutHandler struct {
	payout PayoutService
}

func NewPayoutHandler(svc PayoutService) *PayoutHandler {
	return &PayoutHandler{payout: svc}
}

type resolveReq struct {
	TripID    string      `json:"tripId"`
	OwnerKind string      `json:"ownerKind"`
	OwnerID   string      `json:"ownerId"`
	Trip      payout.Trip `json:"trip"`
}

func (h *PayoutHandler) Resolve(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	kind, err := rates.ParseOwnerKind(req.OwnerKind)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !isValidID(req.OwnerID) {
		writeError(c, http.StatusBadRequest, "invalid owner id")
		return
	}
	if req.Trip.Status == "" {
		writeError(c, http.StatusBadRequest, "missing trip status")
		return
	}
	res, err := h.payout.ResolveFor(c.Request.Context(), req.TripID, req.Trip, rates.Owner{Kind: kind, ID: types.ID(req.OwnerID)})
	if err != nil {
		writePayoutError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

type previewReq struct {
	Trip    payout.Trip        `json:"trip"`
	Profile *rates.RateProfile `json:"profile"`
}

// Preview prices a trip against an unsaved profile. Omitting the profile
// previews the system defaults.
func (h *PayoutHandler) Preview(c *gin.Context) {
	var req previewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Trip.Status == "" {
		writeError(c, http.StatusBadRequest, "missing trip status")
		return
	}
	writeJSON(c, http.StatusOK, h.payout.Preview(req.Trip, req.Profile))
}

type quoteReq struct {
	OwnerKind    string `json:"ownerKind"`
	OwnerID      string `json:"ownerId"`
	ServiceLevel string `json:"serviceLevel"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
}

func (h *PayoutHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	kind, err := rates.ParseOwnerKind(req.OwnerKind)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	level, err := rates.ParseServiceLevel(req.ServiceLevel)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !isValidID(req.OwnerID) {
		writeError(c, http.StatusBadRequest, "invalid owner id")
		return
	}
	q, err := h.payout.Quote(c.Request.Context(), payout.QuoteRequest{
		Owner:        rates.Owner{Kind: kind, ID: types.ID(req.OwnerID)},
		ServiceLevel: level,
		Origin:       req.Origin,
		Destination:  req.Destination,
	})
	if err != nil {
		writePayoutError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
