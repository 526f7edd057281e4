// README: Common value objects (ids, cent rounding) shared across modules.
package types

import "github.com/shopspring/decimal"

// ID identifies a trip, driver, facility, contractor or patient record.
type ID string

// CentsPlaces is the precision every monetary result is rounded to.
const CentsPlaces = 2

// RoundCents rounds half away from zero to two decimal places. Arithmetic
// stays in decimal; rounding happens once, at the end of a computation.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentsPlaces)
}
