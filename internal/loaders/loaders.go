package loaders

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/pkg/cache"
	"bookshelf/pkg/ctxkeys"
)

// Loaders bundles per-request loaders. These provide de-dup and caching
// within one request; every distinct key still costs one store query.
type Loaders struct {
	Author        *AuthorLoader
	BooksByAuthor *BooksByAuthorLoader
}

// New builds loaders over s. requests may be nil.
func New(s store.Store, requests *prometheus.CounterVec) *Loaders {
	return &Loaders{
		Author:        &AuthorLoader{store: s, cache: cache.New(cache.Options{}, hooks(requests, "author"))},
		BooksByAuthor: &BooksByAuthorLoader{store: s, cache: cache.New(cache.Options{}, hooks(requests, "books_by_author"))},
	}
}

func hooks(requests *prometheus.CounterVec, loader string) cache.MetricsHooks {
	if requests == nil {
		return cache.MetricsHooks{}
	}
	return cache.MetricsHooks{
		OnHit:   func() { requests.WithLabelValues(loader, "hit").Inc() },
		OnMiss:  func() { requests.WithLabelValues(loader, "miss").Inc() },
		OnError: func() { requests.WithLabelValues(loader, "error").Inc() },
	}
}

// Attach returns ctx carrying l.
func Attach(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, ctxkeys.KeyLoaders, l)
}

// FromContext returns the loaders attached to ctx, or nil.
func FromContext(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(ctxkeys.KeyLoaders).(*Loaders); ok {
		return l
	}
	return nil
}

// AuthorLoader loads authors by id. A missing author is cached as nil.
type AuthorLoader struct {
	store store.Store
	cache *cache.Cache
}

func (l *AuthorLoader) Load(ctx context.Context, id string) (*models.Author, error) {
	v, _, err := l.cache.Get(ctx, id, func(ctx context.Context, key string) (interface{}, bool, error) {
		a, err := l.store.AuthorByID(ctx, key)
		if store.IsNotFound(err) {
			return (*models.Author)(nil), true, nil
		}
		if err != nil {
			return nil, false, err
		}
		return a, true, nil
	})
	if err != nil {
		return nil, err
	}
	a, _ := v.(*models.Author)
	return a, nil
}

// Prime stores a known author, e.g. one just created.
func (l *AuthorLoader) Prime(a *models.Author) {
	l.cache.Set(a.ID, a)
}

// BooksByAuthorLoader loads the books of one author.
type BooksByAuthorLoader struct {
	store store.Store
	cache *cache.Cache
}

func (l *BooksByAuthorLoader) Load(ctx context.Context, authorID string) ([]*models.Book, error) {
	v, _, err := l.cache.Get(ctx, authorID, func(ctx context.Context, key string) (interface{}, bool, error) {
		books, err := l.store.Books(ctx, models.BookFilter{AuthorID: &key})
		if err != nil {
			return nil, false, err
		}
		return books, true, nil
	})
	if err != nil {
		return nil, err
	}
	books, _ := v.([]*models.Book)
	return books, nil
}

// Clear drops the cached books of each author id, or of every author when
// called without ids.
func (l *BooksByAuthorLoader) Clear(authorIDs ...string) {
	if len(authorIDs) == 0 {
		l.cache.Clear()
		return
	}
	for _, id := range authorIDs {
		l.cache.Delete(id)
	}
}
