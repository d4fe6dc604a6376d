package loaders

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"bookshelf/internal/models"
	"bookshelf/internal/store/memory"
)

type countingStore struct {
	*memory.Store
	authorCalls atomic.Int32
	bookCalls   atomic.Int32
}

func (c *countingStore) AuthorByID(ctx context.Context, id string) (*models.Author, error) {
	c.authorCalls.Add(1)
	return c.Store.AuthorByID(ctx, id)
}

func (c *countingStore) Books(ctx context.Context, f models.BookFilter) ([]*models.Book, error) {
	c.bookCalls.Add(1)
	return c.Store.Books(ctx, f)
}

func TestAuthorLoaderDeduplicates(t *testing.T) {
	s := &countingStore{Store: memory.New()}
	ctx := context.Background()
	a, _ := s.CreateAuthor(ctx, "J.R.R. Tolkien", 81)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "loader_requests_total"}, []string{"loader", "result"})
	l := New(s, requests)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := l.Author.Load(ctx, a.ID)
			if err != nil || got == nil || got.Name != "J.R.R. Tolkien" {
				t.Errorf("unexpected load result %v %v", got, err)
			}
		}()
	}
	wg.Wait()

	if n := s.authorCalls.Load(); n != 1 {
		t.Fatalf("expected 1 store call, got %d", n)
	}
	hits := testutil.ToFloat64(requests.WithLabelValues("author", "hit"))
	misses := testutil.ToFloat64(requests.WithLabelValues("author", "miss"))
	if hits+misses != 10 {
		t.Fatalf("expected 10 loader requests, got %v hits %v misses", hits, misses)
	}
}

func TestAuthorLoaderCachesMissing(t *testing.T) {
	s := &countingStore{Store: memory.New()}
	l := New(s, nil)

	for i := 0; i < 3; i++ {
		got, err := l.Author.Load(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil author, got %+v", got)
		}
	}
	if n := s.authorCalls.Load(); n != 1 {
		t.Fatalf("expected 1 store call, got %d", n)
	}
}

func TestAuthorLoaderPrime(t *testing.T) {
	s := &countingStore{Store: memory.New()}
	l := New(s, nil)

	l.Author.Prime(&models.Author{ID: "a1", Name: "Primed", Age: 1})
	got, err := l.Author.Load(context.Background(), "a1")
	if err != nil || got.Name != "Primed" {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if n := s.authorCalls.Load(); n != 0 {
		t.Fatalf("expected no store calls, got %d", n)
	}
}

func TestBooksByAuthorClear(t *testing.T) {
	s := &countingStore{Store: memory.New()}
	ctx := context.Background()
	l := New(s, nil)

	_, _ = s.CreateBook(ctx, "The Hobbit", "Fantasy", "a1")
	books, err := l.BooksByAuthor.Load(ctx, "a1")
	if err != nil || len(books) != 1 {
		t.Fatalf("unexpected result %v %v", books, err)
	}

	_, _ = s.CreateBook(ctx, "The Silmarillion", "Mythopoeia", "a1")
	books, _ = l.BooksByAuthor.Load(ctx, "a1")
	if len(books) != 1 {
		t.Fatalf("expected cached result before clear, got %d", len(books))
	}

	l.BooksByAuthor.Clear("a1")
	books, _ = l.BooksByAuthor.Load(ctx, "a1")
	if len(books) != 2 {
		t.Fatalf("expected fresh result after clear, got %d", len(books))
	}
	if n := s.bookCalls.Load(); n != 2 {
		t.Fatalf("expected 2 store calls, got %d", n)
	}
}

func TestAttachAndFromContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil loaders on bare context")
	}
	l := New(memory.New(), nil)
	if FromContext(Attach(context.Background(), l)) != l {
		t.Fatalf("expected attached loaders")
	}
}
