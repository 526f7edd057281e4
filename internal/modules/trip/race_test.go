// README: Concurrency tests for trip status transitions (run with -race).
package trip

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentStartVsCancel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-race", StatusAssigned, "4")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, to := range []Status{StatusInProgress, StatusCancelled} {
		wg.Add(1)
		go func(to Status) {
			defer wg.Done()
			errs <- svc.Close(ctx, CloseCommand{TripID: "t-race", Status: to})
		}(to)
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.Get(ctx, "t-race")
	require.NoError(t, err)
	switch success {
	case 1:
		assert.Contains(t, []Status{StatusInProgress, StatusCancelled}, got.Status)
		assert.Equal(t, 1, got.StatusVersion)
	case 2:
		t.Fatalf("both transitions succeeded, final status %s", got.Status)
	default:
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
}

func TestConcurrentFinalize(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateTrip(t, store, "t-fin", StatusCompleted, "7")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.FinalizePayout(ctx, "t-fin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, "t-fin")
	require.NoError(t, err)
	require.NotNil(t, got.StoredPayout)
	assert.Equal(t, "16.40", got.StoredPayout.StringFixed(2))
}
