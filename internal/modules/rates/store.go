// README: Rate profile store backed by PostgreSQL (compact jsonb rows plus legacy driver columns).
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"nemt/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Get returns the owner's profile. Driver owners without a rate_profiles row
// fall back to the flat columns on their driver record. ErrNotFound when
// neither exists.
func (s *Store) Get(ctx context.Context, owner Owner) (*RateProfile, error) {
	p, err := s.getCompact(ctx, owner)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) || owner.Kind != OwnerDriver {
		return nil, err
	}
	return s.getDriverFlat(ctx, owner.ID)
}

func (s *Store) getCompact(ctx context.Context, owner Owner) (*RateProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT rates, cancellation_rate::text, no_show_rate::text
		FROM rate_profiles
		WHERE owner_kind = $1 AND owner_id = $2`,
		string(owner.Kind), string(owner.ID),
	)
	p, err := scanCompact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rates: get %s: %w", owner, err)
	}
	return &p, nil
}

const flatColumns = `
	ambulatory_rate::text, ambulatory_base_miles, ambulatory_additional_mile_rate::text,
	wheelchair_rate::text, wheelchair_base_miles, wheelchair_additional_mile_rate::text,
	stretcher_rate::text, stretcher_base_miles, stretcher_additional_mile_rate::text,
	cancellation_rate::text, no_show_rate::text,
	vehicle_rental::text, insurance::text, deduction_percentage::text`

const flatConfigured = `(ambulatory_base_miles IS NOT NULL OR wheelchair_base_miles IS NOT NULL OR stretcher_base_miles IS NOT NULL)`

func (s *Store) getDriverFlat(ctx context.Context, driverID types.ID) (*RateProfile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+flatColumns+` FROM drivers WHERE id = $1 AND `+flatConfigured, string(driverID))
	f, err := scanFlat(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rates: get driver %s flat columns: %w", driverID, err)
	}
	p := FromFlat(f)
	return &p, nil
}

// Save upserts the owner's profile in the compact encoding. Concurrent
// saves are last-write-wins.
func (s *Store) Save(ctx context.Context, owner Owner, p RateProfile) error {
	raw, err := json.Marshal(ToCompact(p))
	if err != nil {
		return fmt.Errorf("rates: encode %s: %w", owner, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rate_profiles (id, owner_kind, owner_id, rates, cancellation_rate, no_show_rate, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::numeric, $6::numeric, NOW())
		ON CONFLICT (owner_kind, owner_id) DO UPDATE
		SET rates = EXCLUDED.rates,
		    cancellation_rate = EXCLUDED.cancellation_rate,
		    no_show_rate = EXCLUDED.no_show_rate,
		    updated_at = NOW()`,
		uuid.NewString(),
		string(owner.Kind),
		string(owner.ID),
		string(raw),
		p.CancellationRate.String(),
		p.NoShowRate.String(),
	)
	if err != nil {
		return fmt.Errorf("rates: save %s: %w", owner, err)
	}
	return nil
}

// ListByKind returns every configured profile of one owner kind, keyed by
// owner id. Compact rows shadow driver flat columns.
func (s *Store) ListByKind(ctx context.Context, kind OwnerKind) (map[types.ID]RateProfile, error) {
	out := make(map[types.ID]RateProfile)

	if kind == OwnerDriver {
		rows, err := s.db.Query(ctx, `SELECT id, `+flatColumns+` FROM drivers WHERE `+flatConfigured)
		if err != nil {
			return nil, fmt.Errorf("rates: list driver flat columns: %w", err)
		}
		for rows.Next() {
			var id string
			f, err := scanFlatWithID(rows, &id)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("rates: scan driver %s: %w", id, err)
			}
			out[types.ID(id)] = FromFlat(f)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT owner_id, rates, cancellation_rate::text, no_show_rate::text
		FROM rate_profiles
		WHERE owner_kind = $1`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("rates: list %s profiles: %w", kind, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var raw []byte
		var cancellation, noShow string
		if err := rows.Scan(&id, &raw, &cancellation, &noShow); err != nil {
			return nil, err
		}
		p, err := decodeCompactRow(raw, cancellation, noShow)
		if err != nil {
			return nil, fmt.Errorf("rates: decode %s:%s: %w", kind, id, err)
		}
		out[types.ID(id)] = p
	}
	return out, rows.Err()
}

func scanCompact(row pgx.Row) (RateProfile, error) {
	var raw []byte
	var cancellation, noShow string
	if err := row.Scan(&raw, &cancellation, &noShow); err != nil {
		return RateProfile{}, err
	}
	return decodeCompactRow(raw, cancellation, noShow)
}

func decodeCompactRow(raw []byte, cancellation, noShow string) (RateProfile, error) {
	var c CompactRates
	if err := json.Unmarshal(raw, &c); err != nil {
		return RateProfile{}, err
	}
	fees := Fees{}
	var err error
	if fees.Cancellation, err = decimal.NewFromString(cancellation); err != nil {
		return RateProfile{}, err
	}
	if fees.NoShow, err = decimal.NewFromString(noShow); err != nil {
		return RateProfile{}, err
	}
	return FromCompact(c, fees), nil
}

func scanFlat(row pgx.Row) (FlatColumns, error) {
	return scanFlatWithID(row, nil)
}

// scanFlatWithID scans the flatColumns projection, preceded by the driver id
// when id is non-nil.
func scanFlatWithID(row pgx.Row, id *string) (FlatColumns, error) {
	var (
		ambRate, ambAdd, wcRate, wcAdd, stRate, stAdd *string
		ambMiles, wcMiles, stMiles                    *int32
		cancellation, noShow                          *string
		rental, insurance, pct                        *string
	)
	dest := []any{
		&ambRate, &ambMiles, &ambAdd,
		&wcRate, &wcMiles, &wcAdd,
		&stRate, &stMiles, &stAdd,
		&cancellation, &noShow,
		&rental, &insurance, &pct,
	}
	if id != nil {
		dest = append([]any{id}, dest...)
	}
	if err := row.Scan(dest...); err != nil {
		return FlatColumns{}, err
	}

	var f FlatColumns
	var err error
	parse := func(dst *decimal.Decimal, src *string) {
		if err != nil || src == nil {
			return
		}
		*dst, err = decimal.NewFromString(*src)
	}
	parse(&f.AmbulatoryRate, ambRate)
	parse(&f.AmbulatoryAdditionalMileRate, ambAdd)
	parse(&f.WheelchairRate, wcRate)
	parse(&f.WheelchairAdditionalMileRate, wcAdd)
	parse(&f.StretcherRate, stRate)
	parse(&f.StretcherAdditionalMileRate, stAdd)
	parse(&f.CancellationRate, cancellation)
	parse(&f.NoShowRate, noShow)
	f.AmbulatoryBaseMiles = intOrZero(ambMiles)
	f.WheelchairBaseMiles = intOrZero(wcMiles)
	f.StretcherBaseMiles = intOrZero(stMiles)

	optional := func(src *string) *decimal.Decimal {
		if src == nil {
			return nil
		}
		var d decimal.Decimal
		parse(&d, src)
		return &d
	}
	f.VehicleRental = optional(rental)
	f.Insurance = optional(insurance)
	f.DeductionPercentage = optional(pct)
	return f, err
}

func intOrZero(v *int32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
