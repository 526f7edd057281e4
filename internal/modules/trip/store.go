// README: Trip store backed by PostgreSQL.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const tripColumns = `
	id, driver_id, facility_id, contractor_id, patient_id,
	service_level, distance_miles::text, status, status_version,
	stored_payout::text, scheduled_at, completed_at`

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (
			id, driver_id, facility_id, contractor_id, patient_id,
			service_level, distance_miles, status, status_version,
			stored_payout, scheduled_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7::numeric, $8, $9,
			$10::numeric, $11, $12
		)`,
		string(t.ID),
		toStringPtr(t.DriverID),
		toStringPtr(t.FacilityID),
		toStringPtr(t.ContractorID),
		toStringPtr(t.PatientID),
		string(t.ServiceLevel),
		t.DistanceMiles.String(),
		string(t.Status),
		t.StatusVersion,
		toNumericPtr(t.StoredPayout),
		t.ScheduledAt,
		t.CompletedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListInRange returns trips scheduled within [f.From, f.To], oldest first.
// A zero bound is open.
func (s *Store) ListInRange(ctx context.Context, f Filter) ([]Trip, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("scheduled_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("scheduled_at <= $%d", f.To)
	}
	if f.DriverID != nil {
		add("driver_id = $%d", string(*f.DriverID))
	}
	if f.FacilityID != nil {
		add("facility_id = $%d", string(*f.FacilityID))
	}
	if f.ContractorID != nil {
		add("contractor_id = $%d", string(*f.ContractorID))
	}
	if f.PatientID != nil {
		add("patient_id = $%d", string(*f.PatientID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateStatus moves a trip from one status to another if nobody else has
// changed it since version was read. distance, when set, replaces the
// recorded distance.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, distance *decimal.Decimal) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET status = $1,
			status_version = status_version + 1,
			distance_miles = COALESCE($2::numeric, distance_miles),
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toNumericPtr(distance),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetStoredPayout writes the explicit payout. A nil amount clears it.
func (s *Store) SetStoredPayout(ctx context.Context, id types.ID, amount *decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `UPDATE trips SET stored_payout = $1::numeric WHERE id = $2`,
		toNumericPtr(amount), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_state_events (
			trip_id, from_status, to_status, actor_type, actor_id, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.TripID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.Note,
		e.CreatedAt,
	)
	return err
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var driverID, facilityID, contractorID, patientID, storedPayout *string
	var level, status, distance string
	err := row.Scan(
		&t.ID, &driverID, &facilityID, &contractorID, &patientID,
		&level, &distance, &status, &t.StatusVersion,
		&storedPayout, &t.ScheduledAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ServiceLevel = rates.ServiceLevel(level)
	t.Status = Status(status)
	if t.DistanceMiles, err = decimal.NewFromString(distance); err != nil {
		return nil, fmt.Errorf("trip %s: distance: %w", t.ID, err)
	}
	if storedPayout != nil {
		v, err := decimal.NewFromString(*storedPayout)
		if err != nil {
			return nil, fmt.Errorf("trip %s: stored payout: %w", t.ID, err)
		}
		t.StoredPayout = &v
	}
	t.DriverID = toIDPtr(driverID)
	t.FacilityID = toIDPtr(facilityID)
	t.ContractorID = toIDPtr(contractorID)
	t.PatientID = toIDPtr(patientID)
	t.ScheduledAt = t.ScheduledAt.UTC()
	if t.CompletedAt != nil {
		c := t.CompletedAt.UTC()
		t.CompletedAt = &c
	}
	return &t, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}

func toNumericPtr(v *decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
