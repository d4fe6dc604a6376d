// Package memory is an in-process Store used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
)

// Store keeps records in insertion order behind a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	authors     map[string]*models.Author
	authorOrder []string
	books       map[string]*models.Book
	bookOrder   []string
	newID       func() string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		authors: make(map[string]*models.Author),
		books:   make(map[string]*models.Book),
		newID:   func() string { return uuid.New().String() },
	}
}

func cloneAuthor(a *models.Author) *models.Author {
	c := *a
	return &c
}

func cloneBook(b *models.Book) *models.Book {
	c := *b
	return &c
}

func (s *Store) AuthorByID(_ context.Context, id string) (*models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.authors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneAuthor(a), nil
}

func (s *Store) Authors(_ context.Context) ([]*models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.authorOrder, func(id string, _ int) *models.Author {
		return cloneAuthor(s.authors[id])
	}), nil
}

func (s *Store) CreateAuthor(_ context.Context, name string, age int) (*models.Author, error) {
	a := &models.Author{ID: s.newID(), Name: name, Age: age}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[a.ID] = a
	s.authorOrder = append(s.authorOrder, a.ID)
	return cloneAuthor(a), nil
}

func (s *Store) BookByID(_ context.Context, id string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneBook(b), nil
}

func (s *Store) Books(_ context.Context, filter models.BookFilter) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		if b := s.books[id]; filter.Matches(*b) {
			out = append(out, cloneBook(b))
		}
	}
	return out, nil
}

func (s *Store) CreateBook(_ context.Context, name, genre, authorID string) (*models.Book, error) {
	b := &models.Book{ID: s.newID(), Name: name, Genre: genre, AuthorID: authorID}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b
	s.bookOrder = append(s.bookOrder, b.ID)
	return cloneBook(b), nil
}

func (s *Store) UpdateBook(_ context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	updated := patch.Apply(*b)
	s.books[id] = &updated
	return cloneBook(&updated), nil
}

func (s *Store) DeleteBook(_ context.Context, id string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.books, id)
	s.bookOrder = lo.Without(s.bookOrder, id)
	return b, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
