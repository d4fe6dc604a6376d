package store

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bookshelf/internal/models"
	"bookshelf/pkg/breaker"
)

// ErrUnavailable is returned without touching the backend while the store
// circuit is open.
var ErrUnavailable = fmt.Errorf("store unavailable: %w", breaker.ErrOpen)

// InstrumentOptions configures NewInstrumented. Nil fields disable the
// corresponding concern.
type InstrumentOptions struct {
	Queries  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Breaker  *breaker.CircuitBreaker
}

// Instrumented decorates a Store with query metrics and a circuit breaker.
type Instrumented struct {
	next Store
	opts InstrumentOptions
}

func NewInstrumented(next Store, opts InstrumentOptions) *Instrumented {
	return &Instrumented{next: next, opts: opts}
}

// Unwrap returns the decorated store.
func (s *Instrumented) Unwrap() Store {
	return s.next
}

// BreakerFailure is the failure predicate for store circuit breakers:
// not-found outcomes are answers, not failures.
func BreakerFailure(err error) bool {
	return err != nil && !IsNotFound(err)
}

func observe[T any](ctx context.Context, s *Instrumented, queryType string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	var (
		out T
		err error
	)
	if s.opts.Breaker != nil {
		var res any
		res, err = s.opts.Breaker.Execute(ctx, func() (any, error) {
			return fn(ctx)
		})
		if v, ok := res.(T); ok {
			out = v
		}
		if breaker.IsOpenError(err) {
			err = ErrUnavailable
		}
	} else {
		out, err = fn(ctx)
	}

	if s.opts.Duration != nil {
		s.opts.Duration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	}
	if s.opts.Queries != nil {
		s.opts.Queries.WithLabelValues(queryType, queryStatus(err)).Inc()
	}
	return out, err
}

func queryStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsNotFound(err):
		return "not_found"
	case breaker.IsOpenError(err):
		return "rejected"
	default:
		return "error"
	}
}

func (s *Instrumented) AuthorByID(ctx context.Context, id string) (*models.Author, error) {
	return observe(ctx, s, "author_by_id", func(ctx context.Context) (*models.Author, error) {
		return s.next.AuthorByID(ctx, id)
	})
}

func (s *Instrumented) Authors(ctx context.Context) ([]*models.Author, error) {
	return observe(ctx, s, "authors", func(ctx context.Context) ([]*models.Author, error) {
		return s.next.Authors(ctx)
	})
}

func (s *Instrumented) CreateAuthor(ctx context.Context, name string, age int) (*models.Author, error) {
	return observe(ctx, s, "create_author", func(ctx context.Context) (*models.Author, error) {
		return s.next.CreateAuthor(ctx, name, age)
	})
}

func (s *Instrumented) BookByID(ctx context.Context, id string) (*models.Book, error) {
	return observe(ctx, s, "book_by_id", func(ctx context.Context) (*models.Book, error) {
		return s.next.BookByID(ctx, id)
	})
}

func (s *Instrumented) Books(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	queryType := "books"
	if filter.AuthorID != nil {
		queryType = "books_by_author"
	}
	return observe(ctx, s, queryType, func(ctx context.Context) ([]*models.Book, error) {
		return s.next.Books(ctx, filter)
	})
}

func (s *Instrumented) CreateBook(ctx context.Context, name, genre, authorID string) (*models.Book, error) {
	return observe(ctx, s, "create_book", func(ctx context.Context) (*models.Book, error) {
		return s.next.CreateBook(ctx, name, genre, authorID)
	})
}

func (s *Instrumented) UpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	return observe(ctx, s, "update_book", func(ctx context.Context) (*models.Book, error) {
		return s.next.UpdateBook(ctx, id, patch)
	})
}

func (s *Instrumented) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	return observe(ctx, s, "delete_book", func(ctx context.Context) (*models.Book, error) {
		return s.next.DeleteBook(ctx, id)
	})
}

// Ping bypasses the breaker so health checks always see the backend.
func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
