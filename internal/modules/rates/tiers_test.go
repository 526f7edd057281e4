package rates

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func threeTiers() ServiceLevelRates {
	return ServiceLevelRates{
		Tiers: []RateTier{
			{FromMiles: 1, ToMiles: 5, Rate: dec("14")},
			{FromMiles: 6, ToMiles: 10, Rate: dec("20")},
			{FromMiles: 11, ToMiles: 20, Rate: dec("30")},
		},
		AdditionalMileRate: dec("1.20"),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		rates  ServiceLevelRates
		kinds  []error
		fields []string
	}{
		{name: "valid three tiers", rates: threeTiers()},
		{name: "valid single tier", rates: SingleTier(dec("14"), 5, dec("1.2"))},
		{
			name:   "no tiers",
			rates:  ServiceLevelRates{AdditionalMileRate: dec("1")},
			kinds:  []error{ErrNoTiers},
			fields: []string{"tiers"},
		},
		{
			name:   "first tier not starting at 1",
			rates:  ServiceLevelRates{Tiers: []RateTier{{FromMiles: 2, ToMiles: 5, Rate: dec("14")}}},
			kinds:  []error{ErrNonContiguousTiers},
			fields: []string{"fromMiles"},
		},
		{
			name: "gap between tiers",
			rates: ServiceLevelRates{Tiers: []RateTier{
				{FromMiles: 1, ToMiles: 5, Rate: dec("14")},
				{FromMiles: 7, ToMiles: 10, Rate: dec("20")},
			}},
			kinds:  []error{ErrNonContiguousTiers},
			fields: []string{"fromMiles"},
		},
		{
			name: "overlapping tiers",
			rates: ServiceLevelRates{Tiers: []RateTier{
				{FromMiles: 1, ToMiles: 5, Rate: dec("14")},
				{FromMiles: 5, ToMiles: 10, Rate: dec("20")},
			}},
			kinds:  []error{ErrNonContiguousTiers},
			fields: []string{"fromMiles"},
		},
		{
			name:   "toMiles equal to fromMiles",
			rates:  ServiceLevelRates{Tiers: []RateTier{{FromMiles: 1, ToMiles: 1, Rate: dec("14")}}},
			kinds:  []error{ErrInvalidTierRange},
			fields: []string{"toMiles"},
		},
		{
			name:   "negative tier rate",
			rates:  ServiceLevelRates{Tiers: []RateTier{{FromMiles: 1, ToMiles: 5, Rate: dec("-1")}}},
			kinds:  []error{ErrNegativeRate},
			fields: []string{"rate"},
		},
		{
			name:   "negative additional rate",
			rates:  SingleTier(dec("14"), 5, dec("-0.5")),
			kinds:  []error{ErrNegativeRate},
			fields: []string{"additionalMileRate"},
		},
		{
			name: "several problems reported together",
			rates: ServiceLevelRates{Tiers: []RateTier{
				{FromMiles: 1, ToMiles: 1, Rate: dec("-3")},
				{FromMiles: 4, ToMiles: 9, Rate: dec("5")},
			}},
			kinds:  []error{ErrInvalidTierRange, ErrNegativeRate, ErrNonContiguousTiers},
			fields: []string{"toMiles", "rate", "fromMiles"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rates.Validate()
			if len(tt.kinds) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var errs TierErrors
			require.True(t, errors.As(err, &errs))
			require.Len(t, errs, len(tt.kinds))
			for i, kind := range tt.kinds {
				assert.ErrorIs(t, errs[i], kind)
				assert.Equal(t, tt.fields[i], errs[i].Field)
				assert.ErrorIs(t, err, kind)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	r := threeTiers()
	tests := []struct {
		miles    int
		wantOK   bool
		wantRate string
	}{
		{0, false, ""},
		{1, true, "14"},
		{5, true, "14"},
		{6, true, "20"},
		{10, true, "20"},
		{11, true, "30"},
		{20, true, "30"},
		{21, false, ""},
	}
	for _, tt := range tests {
		tier, ok := r.Lookup(tt.miles)
		assert.Equal(t, tt.wantOK, ok, "miles=%d", tt.miles)
		if tt.wantOK {
			assert.True(t, tier.Rate.Equal(dec(tt.wantRate)), "miles=%d rate=%s", tt.miles, tier.Rate)
		}
	}
}

func TestInsertTier(t *testing.T) {
	r := SingleTier(dec("14"), 5, dec("1.2"))

	out, err := r.InsertTier(0)
	require.NoError(t, err)
	require.Len(t, out.Tiers, 2)
	assert.Equal(t, 6, out.Tiers[1].FromMiles)
	assert.Equal(t, 6, out.Tiers[1].ToMiles, "toMiles is left for the caller to set")
	assert.ErrorIs(t, out.Validate(), ErrInvalidTierRange)
	assert.Len(t, r.Tiers, 1, "receiver must not change")

	out, err = out.UpdateTierBound(1, FieldToMiles, 12)
	require.NoError(t, err)
	assert.NoError(t, out.Validate())

	_, err = r.InsertTier(3)
	assert.ErrorIs(t, err, ErrTierIndex)

	t.Run("after a middle tier still appends", func(t *testing.T) {
		table := threeTiers()
		out, err := table.InsertTier(0)
		require.NoError(t, err)
		require.Len(t, out.Tiers, 4)
		assert.Equal(t, table.Tiers, out.Tiers[:3], "existing tiers keep their bounds")
		assert.Equal(t, RateTier{FromMiles: 21, ToMiles: 21, Rate: decimal.Zero}, out.Tiers[3])

		out, err = out.UpdateTierBound(3, FieldToMiles, 30)
		require.NoError(t, err)
		assert.NoError(t, out.Validate())
	})

	empty, err := ServiceLevelRates{}.InsertTier(0)
	require.NoError(t, err)
	assert.Equal(t, []RateTier{{FromMiles: 1, ToMiles: 1, Rate: decimal.Zero}}, empty.Tiers)
}

func TestRemoveTier(t *testing.T) {
	t.Run("middle tier re-chains bounds", func(t *testing.T) {
		out, err := threeTiers().RemoveTier(1)
		require.NoError(t, err)
		require.Len(t, out.Tiers, 2)
		assert.Equal(t, 1, out.Tiers[0].FromMiles)
		assert.Equal(t, 6, out.Tiers[1].FromMiles)
		assert.Equal(t, 20, out.Tiers[1].ToMiles)
		assert.NoError(t, out.Validate())
	})

	t.Run("first tier forces the next to start at 1", func(t *testing.T) {
		out, err := threeTiers().RemoveTier(0)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Tiers[0].FromMiles)
		assert.Equal(t, 11, out.Tiers[1].FromMiles)
		assert.NoError(t, out.Validate())
	})

	t.Run("only tier cannot be removed", func(t *testing.T) {
		r := SingleTier(dec("14"), 5, dec("1.2"))
		out, err := r.RemoveTier(0)
		assert.ErrorIs(t, err, ErrLastTier)
		assert.Len(t, out.Tiers, 1)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := threeTiers().RemoveTier(5)
		assert.ErrorIs(t, err, ErrTierIndex)
	})
}

func TestUpdateTierBound(t *testing.T) {
	t.Run("toMiles cascades into next tier", func(t *testing.T) {
		out, err := threeTiers().UpdateTierBound(0, FieldToMiles, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, out.Tiers[0].ToMiles)
		assert.Equal(t, 8, out.Tiers[1].FromMiles)
		assert.NoError(t, out.Validate())
	})

	t.Run("toMiles clamped above fromMiles", func(t *testing.T) {
		out, err := threeTiers().UpdateTierBound(1, FieldToMiles, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, out.Tiers[1].ToMiles)
		assert.Equal(t, 8, out.Tiers[2].FromMiles)
	})

	t.Run("fromMiles is set without cascading", func(t *testing.T) {
		out, err := threeTiers().UpdateTierBound(2, FieldFromMiles, 12)
		require.NoError(t, err)
		assert.Equal(t, 12, out.Tiers[2].FromMiles)
		assert.ErrorIs(t, out.Validate(), ErrNonContiguousTiers)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := threeTiers().UpdateTierBound(0, TierField("rate"), 3)
		assert.Error(t, err)
	})

	t.Run("rate update", func(t *testing.T) {
		r := threeTiers()
		out, err := r.UpdateTierRate(2, dec("31.50"))
		require.NoError(t, err)
		assert.Equal(t, "31.50", out.Tiers[2].Rate.StringFixed(2))
		assert.Equal(t, "30.00", r.Tiers[2].Rate.StringFixed(2))
	})
}

func TestRateProfileValidate(t *testing.T) {
	p := DefaultRateProfile()
	assert.NoError(t, p.Validate())

	p.NoShowRate = dec("-1")
	p.Wheelchair = ServiceLevelRates{}
	p.Deductions = &DeductionConfig{Percentage: dec("101")}
	err := p.Validate()
	assert.ErrorIs(t, err, ErrNegativeRate)
	assert.ErrorIs(t, err, ErrNoTiers)
	assert.ErrorIs(t, err, ErrInvalidPercentage)

	var errs TierErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, Wheelchair, errs[0].Level)
	assert.Contains(t, err.Error(), "wheelchair")
}

func TestParseServiceLevel(t *testing.T) {
	lvl, err := ParseServiceLevel(" Wheelchair ")
	require.NoError(t, err)
	assert.Equal(t, Wheelchair, lvl)

	_, err = ParseServiceLevel("bariatric")
	assert.ErrorIs(t, err, ErrUnknownServiceLevel)

	kind, err := ParseOwnerKind("CONTRACTOR")
	require.NoError(t, err)
	assert.Equal(t, OwnerContractor, kind)
}
