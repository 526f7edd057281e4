package rates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTierRange    = errors.New("invalid tier range")
	ErrNonContiguousTiers  = errors.New("non-contiguous tiers")
	ErrNegativeRate        = errors.New("negative rate")
	ErrNoTiers             = errors.New("at least one tier is required")
	ErrInvalidPercentage   = errors.New("deduction percentage must be between 0 and 100")
	ErrTierIndex           = errors.New("tier index out of range")
	ErrLastTier            = errors.New("cannot remove the only tier")
	ErrUnknownServiceLevel = errors.New("unknown service level")
	ErrUnknownOwnerKind    = errors.New("unknown owner kind")
	ErrMalformedEncoding   = errors.New("malformed rate encoding")
	ErrNotSingleTier       = errors.New("flat encoding holds a single tier per service level")
	ErrNotFound            = errors.New("rate profile not found")
)

// TierError is a field-level validation failure. Kind is one of the
// sentinel errors above, so errors.Is(err, ErrNonContiguousTiers) works.
type TierError struct {
	Kind    error
	Level   ServiceLevel
	Index   int
	Field   string
	Message string
}

func (e *TierError) Error() string {
	var b strings.Builder
	if e.Level != "" {
		b.WriteString(string(e.Level))
		b.WriteString(" ")
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, "tier %d ", e.Index)
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *TierError) Unwrap() error { return e.Kind }

// TierErrors collects every problem found in one validation pass.
type TierErrors []*TierError

func (es TierErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (es TierErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// orNil keeps a nil TierErrors from turning into a non-nil error interface.
func (es TierErrors) orNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
