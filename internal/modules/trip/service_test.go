// README: Trip service tests against PostgreSQL (skipped without NEMT_TEST_DSN).
package trip

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type staticProfiles map[rates.Owner]*rates.RateProfile

func (s staticProfiles) Profile(_ context.Context, owner rates.Owner) (*rates.RateProfile, error) {
	return s[owner], nil
}

func newTestService(t *testing.T) (*Service, *Store) {
	store := setupTestStore(t)
	drv := rates.Owner{Kind: rates.OwnerDriver, ID: "drv-1"}
	p := rates.DefaultRateProfile()
	p.CancellationRate = decimal.NewFromInt(15)
	payouts := payout.NewService(staticProfiles{drv: &p}, nil, payout.NewResolver(rates.DefaultRateProfile()), nil)
	return NewService(store, payouts, nil), store
}

func mustCreateTrip(t *testing.T, store *Store, id types.ID, status Status, miles string) {
	t.Helper()
	drv := types.ID("drv-1")
	pat := types.ID("pat-1")
	err := store.Create(context.Background(), &Trip{
		ID:            id,
		DriverID:      &drv,
		PatientID:     &pat,
		ServiceLevel:  rates.Ambulatory,
		DistanceMiles: decimal.RequireFromString(miles),
		Status:        status,
		ScheduledAt:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestCloseAndFinalize(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-flow", StatusInProgress, "0")

	_, err := svc.FinalizePayout(ctx, "t-flow")
	assert.ErrorIs(t, err, ErrNotClosed)

	miles := decimal.RequireFromString("12.6")
	require.NoError(t, svc.Close(ctx, CloseCommand{TripID: "t-flow", Status: StatusCompleted, DistanceMiles: &miles}))

	got, err := svc.Get(ctx, "t-flow")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "12.60", got.DistanceMiles.StringFixed(2))
	assert.NotNil(t, got.CompletedAt)

	res, err := svc.FinalizePayout(ctx, "t-flow")
	require.NoError(t, err)
	assert.Equal(t, "23.60", res.Amount.StringFixed(2))
	assert.Equal(t, payout.SourceTiered, res.Source)

	got, err = svc.Get(ctx, "t-flow")
	require.NoError(t, err)
	require.NotNil(t, got.StoredPayout)
	assert.Equal(t, "23.60", got.StoredPayout.StringFixed(2))

	again, err := svc.FinalizePayout(ctx, "t-flow")
	require.NoError(t, err)
	assert.Equal(t, payout.SourceExplicitOverride, again.Source)
}

func TestCloseRejectsDistanceOutOfRange(t *testing.T) {
	svc := NewService(nil, nil, nil)
	for _, miles := range []string{"-1", "10000.01", "9223372036854775808"} {
		d := decimal.RequireFromString(miles)
		err := svc.Close(context.Background(), CloseCommand{TripID: "trip-x", Status: StatusCompleted, DistanceMiles: &d})
		assert.ErrorIs(t, err, ErrBadRequest, miles)
	}
}

func TestCloseInvalidTransition(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-sched", StatusScheduled, "4")

	err := svc.Close(ctx, CloseCommand{TripID: "t-sched", Status: StatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidState)

	err = svc.Close(ctx, CloseCommand{TripID: "missing", Status: StatusCancelled})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Close(ctx, CloseCommand{TripID: "t-sched", Status: StatusCancelled}))
	res, err := svc.FinalizePayout(ctx, "t-sched")
	require.NoError(t, err)
	assert.Equal(t, payout.SourceCancellationFee, res.Source)
	assert.Equal(t, "15.00", res.Amount.StringFixed(2))
}

func TestOverridePayout(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-over", StatusCompleted, "3")

	err := svc.OverridePayout(ctx, OverrideCommand{TripID: "t-over", Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrBadRequest)

	require.NoError(t, svc.OverridePayout(ctx, OverrideCommand{TripID: "t-over", Amount: decimal.RequireFromString("50.555"), Reason: "wait time"}))
	got, err := svc.Get(ctx, "t-over")
	require.NoError(t, err)
	require.NotNil(t, got.StoredPayout)
	assert.Equal(t, "50.56", got.StoredPayout.StringFixed(2))
}

func TestListInRange(t *testing.T) {
	_, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-a", StatusCompleted, "3")
	mustCreateTrip(t, store, "t-b", StatusNoShow, "0")

	pat := types.ID("pat-1")
	trips, err := store.ListInRange(ctx, Filter{
		From:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 3, 2, 23, 59, 59, 999e6, time.UTC),
		PatientID: &pat,
	})
	require.NoError(t, err)
	assert.Len(t, trips, 2)

	trips, err = store.ListInRange(ctx, Filter{Statuses: []Status{StatusNoShow}})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, types.ID("t-b"), trips[0].ID)

	trips, err = store.ListInRange(ctx, Filter{From: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("NEMT_TEST_DSN")
	if dsn == "" {
		t.Skip("NEMT_TEST_DSN not set; skipping DB-backed trip tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE trip_state_events, trips"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	paths, err := filepath.Glob(filepath.Join(root, "migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQL(stripSQLComments(string(content))) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
