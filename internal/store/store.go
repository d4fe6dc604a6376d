// Package store defines the entity store contract shared by every backend.
package store

import (
	"context"
	"errors"

	"bookshelf/internal/models"
)

// ErrNotFound is returned when an identifier matches no record. Identifiers
// that are malformed for a backend report ErrNotFound as well.
var ErrNotFound = errors.New("not found")

// Store persists authors and books.
type Store interface {
	AuthorByID(ctx context.Context, id string) (*models.Author, error)
	Authors(ctx context.Context) ([]*models.Author, error)
	CreateAuthor(ctx context.Context, name string, age int) (*models.Author, error)

	BookByID(ctx context.Context, id string) (*models.Book, error)
	// Books lists books in insertion order.
	Books(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	CreateBook(ctx context.Context, name, genre, authorID string) (*models.Book, error)
	// UpdateBook writes only the patched fields and returns the stored book.
	UpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error)
	// DeleteBook removes a book and returns its prior value.
	DeleteBook(ctx context.Context, id string) (*models.Book, error)

	Ping(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
