package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/internal/store/memory"
	"bookshelf/internal/store/storetest"
	"bookshelf/pkg/breaker"
)

type failingStore struct {
	*memory.Store
	err   error
	calls int
}

func (f *failingStore) Authors(context.Context) ([]*models.Author, error) {
	f.calls++
	return nil, f.err
}

func newMetrics() (*prometheus.CounterVec, *prometheus.HistogramVec) {
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "db_queries_total"}, []string{"query_type", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "db_query_duration_seconds"}, []string{"query_type"})
	return queries, duration
}

func TestInstrumentedSatisfiesContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		queries, duration := newMetrics()
		return store.NewInstrumented(memory.New(), store.InstrumentOptions{
			Queries:  queries,
			Duration: duration,
			Breaker:  breaker.New(breaker.Config{Name: "store", IsFailure: store.BreakerFailure}),
		})
	}, func() string { return "00000000-0000-4000-8000-000000000000" })
}

func TestInstrumentedRecordsQueryStatus(t *testing.T) {
	queries, duration := newMetrics()
	s := store.NewInstrumented(memory.New(), store.InstrumentOptions{Queries: queries, Duration: duration})
	ctx := context.Background()

	a, err := s.CreateAuthor(ctx, "J.R.R. Tolkien", 81)
	require.NoError(t, err)
	_, err = s.AuthorByID(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.AuthorByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Books(ctx, models.BookFilter{AuthorID: &a.ID})
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(queries.WithLabelValues("create_author", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(queries.WithLabelValues("author_by_id", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(queries.WithLabelValues("author_by_id", "not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(queries.WithLabelValues("books_by_author", "success")))
	require.Equal(t, 3, testutil.CollectAndCount(duration))
}

func TestInstrumentedBreakerFailsFast(t *testing.T) {
	backend := &failingStore{Store: memory.New(), err: errors.New("connection refused")}
	queries, duration := newMetrics()
	s := store.NewInstrumented(backend, store.InstrumentOptions{
		Queries:  queries,
		Duration: duration,
		Breaker: breaker.New(breaker.Config{
			Name:         "store",
			MinRequests:  2,
			FailureRatio: 1,
			Delay:        time.Minute,
			IsFailure:    store.BreakerFailure,
		}),
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Authors(ctx)
		require.ErrorIs(t, err, backend.err)
	}

	_, err := s.Authors(ctx)
	require.ErrorIs(t, err, store.ErrUnavailable)
	require.Equal(t, 2, backend.calls)
	require.Equal(t, 1.0, testutil.ToFloat64(queries.WithLabelValues("authors", "rejected")))
	require.Equal(t, 2.0, testutil.ToFloat64(queries.WithLabelValues("authors", "error")))

	// Ping is never gated by the breaker.
	require.NoError(t, s.Ping(ctx))
}

func TestInstrumentedNotFoundDoesNotTrip(t *testing.T) {
	s := store.NewInstrumented(memory.New(), store.InstrumentOptions{
		Breaker: breaker.New(breaker.Config{Name: "store", MinRequests: 2, FailureRatio: 1, IsFailure: store.BreakerFailure}),
	})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.BookByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	}
	_, err := s.Authors(ctx)
	require.NoError(t, err)
}
