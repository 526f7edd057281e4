// README: Tier table editing endpoints. Stateless: the client sends the table
// and gets back the edited table plus any validation problems.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
)

type TierHandler struct{}

func NewTierHandler() *TierHandler {
	return &TierHandler{}
}

type tierEditRequest struct {
	Table rates.ServiceLevelRates `json:"table"`
	Index int                     `json:"index"`
	Field rates.TierField         `json:"field"`
	Value int                     `json:"value"`
	Rate  *decimal.Decimal        `json:"rate"`
}

type tierEditResponse struct {
	Table  rates.ServiceLevelRates `json:"table"`
	Errors []fieldError            `json:"errors"`
}

func (h *TierHandler) Insert(c *gin.Context) {
	req, ok := bindTierEdit(c)
	if !ok {
		return
	}
	table, err := req.Table.InsertTier(req.Index)
	writeTierEdit(c, table, err)
}

func (h *TierHandler) Remove(c *gin.Context) {
	req, ok := bindTierEdit(c)
	if !ok {
		return
	}
	table, err := req.Table.RemoveTier(req.Index)
	writeTierEdit(c, table, err)
}

// Update edits a bound when field is set, otherwise the rate.
func (h *TierHandler) Update(c *gin.Context) {
	req, ok := bindTierEdit(c)
	if !ok {
		return
	}
	switch {
	case req.Field != "":
		table, err := req.Table.UpdateTierBound(req.Index, req.Field, req.Value)
		writeTierEdit(c, table, err)
	case req.Rate != nil:
		table, err := req.Table.UpdateTierRate(req.Index, *req.Rate)
		writeTierEdit(c, table, err)
	default:
		writeError(c, http.StatusBadRequest, "field or rate is required")
	}
}

func bindTierEdit(c *gin.Context) (tierEditRequest, bool) {
	var req tierEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return req, false
	}
	switch req.Field {
	case "", rates.FieldFromMiles, rates.FieldToMiles:
		return req, true
	}
	writeError(c, http.StatusBadRequest, "field must be fromMiles or toMiles")
	return req, false
}

// writeTierEdit returns the edited table even when it no longer validates;
// the editor shows the problems next to the fields.
func writeTierEdit(c *gin.Context, table rates.ServiceLevelRates, err error) {
	if err != nil {
		writeRatesError(c, err)
		return
	}
	fields := fieldErrors(table.Validate())
	if fields == nil {
		fields = []fieldError{}
	}
	writeJSON(c, http.StatusOK, tierEditResponse{Table: table, Errors: fields})
}
