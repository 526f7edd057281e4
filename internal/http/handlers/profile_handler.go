// README: Rate profile handlers: read and save in either encoding, dry-run validation.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type ProfileService interface {
	Profile(ctx context.Context, owner rates.Owner) (*rates.RateProfile, error)
	Save(ctx context.Context, owner rates.Owner, p rates.RateProfile) error
}

type ProfileHandler struct {
	rates ProfileService
}

func NewProfileHandler(svc ProfileService) *ProfileHandler {
	return &ProfileHandler{rates: svc}
}

// compactProfile is the API body for the compact encoding.
type compactProfile struct {
	Rates            rates.CompactRates `json:"rates"`
	CancellationRate decimal.Decimal    `json:"cancellationRate"`
	NoShowRate       decimal.Decimal    `json:"noShowRate"`
}

func (b compactProfile) profile() rates.RateProfile {
	return rates.FromCompact(b.Rates, rates.Fees{Cancellation: b.CancellationRate, NoShow: b.NoShowRate})
}

func toCompactProfile(p rates.RateProfile) compactProfile {
	return compactProfile{Rates: rates.ToCompact(p), CancellationRate: p.CancellationRate, NoShowRate: p.NoShowRate}
}

func ownerFromPath(c *gin.Context) (rates.Owner, bool) {
	kind, err := rates.ParseOwnerKind(c.Param("kind"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return rates.Owner{}, false
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid owner id")
		return rates.Owner{}, false
	}
	return rates.Owner{Kind: kind, ID: types.ID(id)}, true
}

func (h *ProfileHandler) Get(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	p, err := h.rates.Profile(c.Request.Context(), owner)
	if err != nil {
		writeRatesError(c, err)
		return
	}
	if p == nil {
		writeError(c, http.StatusNotFound, rates.ErrNotFound.Error())
		return
	}
	switch c.DefaultQuery("encoding", "compact") {
	case "flat":
		flat, err := rates.ToFlat(*p)
		if err != nil {
			writeRatesError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, flat)
	case "compact":
		writeJSON(c, http.StatusOK, toCompactProfile(*p))
	default:
		writeError(c, http.StatusBadRequest, "encoding must be compact or flat")
	}
}

func (h *ProfileHandler) Put(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	var p rates.RateProfile
	switch c.DefaultQuery("encoding", "compact") {
	case "flat":
		var body rates.FlatColumns
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
		p = rates.FromFlat(body)
	case "compact":
		var body compactProfile
		if err := c.ShouldBindJSON(&body); err != nil {
			writeRatesError(c, asMalformed(err))
			return
		}
		p = body.profile()
	default:
		writeError(c, http.StatusBadRequest, "encoding must be compact or flat")
		return
	}
	if err := h.rates.Save(c.Request.Context(), owner, p); err != nil {
		writeRatesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toCompactProfile(p))
}

type validationResponse struct {
	Valid  bool         `json:"valid"`
	Errors []fieldError `json:"errors"`
}

// Validate checks a draft profile without saving it.
func (h *ProfileHandler) Validate(c *gin.Context) {
	var body compactProfile
	if err := c.ShouldBindJSON(&body); err != nil {
		writeRatesError(c, asMalformed(err))
		return
	}
	fields := fieldErrors(body.profile().Validate())
	if fields == nil {
		fields = []fieldError{}
	}
	writeJSON(c, http.StatusOK, validationResponse{Valid: len(fields) == 0, Errors: fields})
}
