package resolvers

import (
	"context"

	gqlerrors "bookshelf/internal/errors"
	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/pkg/logging"
)

// ============================================================================
// Queries
// ============================================================================

// DoGetBook returns the book with id, or nil when it does not exist.
func (r *Resolver) DoGetBook(ctx context.Context, id *string) (*models.Book, error) {
	if id == nil {
		return nil, gqlerrors.Validation("id required")
	}
	book, err := r.Store.BookByID(ctx, *id)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		r.logStoreError(err, "book", "get", *id)
		return nil, gqlerrors.Store("failed to fetch book", err)
	}
	return book, nil
}

// DoGetBooks returns every book.
func (r *Resolver) DoGetBooks(ctx context.Context) ([]*models.Book, error) {
	books, err := r.Store.Books(ctx, models.BookFilter{})
	if err != nil {
		r.logStoreError(err, "book", "list", "")
		return nil, gqlerrors.Store("failed to list books", err)
	}
	return books, nil
}

// DoGetBookAuthor resolves Book.author. An author id that matches nothing
// yields nil.
func (r *Resolver) DoGetBookAuthor(ctx context.Context, book *models.Book) (*models.Author, error) {
	if book == nil {
		return nil, nil
	}

	var (
		author *models.Author
		err    error
	)
	if l := r.loaders(ctx); l != nil {
		author, err = l.Author.Load(ctx, book.AuthorID)
	} else {
		author, err = r.Store.AuthorByID(ctx, book.AuthorID)
		if store.IsNotFound(err) {
			return nil, nil
		}
	}
	if err != nil {
		r.logStoreError(err, "author", "get", book.AuthorID)
		return nil, gqlerrors.Store("failed to fetch author", err)
	}
	return author, nil
}

// ============================================================================
// Mutations
// ============================================================================

// DoAddBook creates a book. The author id is not checked.
func (r *Resolver) DoAddBook(ctx context.Context, name, genre, authorID string) (*models.Book, error) {
	book, err := r.Store.CreateBook(ctx, name, genre, authorID)
	if err != nil {
		r.logStoreError(err, "book", "create", "")
		return nil, gqlerrors.Store("failed to create book", err)
	}

	if l := r.loaders(ctx); l != nil {
		l.BooksByAuthor.Clear(book.AuthorID)
	}
	r.publish(ctx, EventBookCreated, "book", book.ID, book)
	return book, nil
}

// DoUpdateBook writes only the supplied fields and returns the stored book.
func (r *Resolver) DoUpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	book, err := r.Store.UpdateBook(ctx, id, patch)
	if err != nil {
		if !store.IsNotFound(err) {
			r.logStoreError(err, "book", "update", id)
		}
		return nil, gqlerrors.FromStore(err, "book not found", "failed to update book")
	}

	if l := r.loaders(ctx); l != nil {
		if patch.AuthorID != nil {
			// the previous author is unknown here
			l.BooksByAuthor.Clear()
		} else {
			l.BooksByAuthor.Clear(book.AuthorID)
		}
	}
	if !patch.IsEmpty() {
		r.publish(ctx, EventBookUpdated, "book", book.ID, book)
	}
	return book, nil
}

// DoDeleteBook removes a book and returns its prior value, or nil when
// nothing was deleted.
func (r *Resolver) DoDeleteBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := r.Store.DeleteBook(ctx, id)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		r.logStoreError(err, "book", "delete", id)
		return nil, gqlerrors.Store("failed to delete book", err)
	}

	if l := r.loaders(ctx); l != nil {
		l.BooksByAuthor.Clear(book.AuthorID)
	}
	r.publish(ctx, EventBookDeleted, "book", book.ID, book)
	return book, nil
}

func (r *Resolver) logStoreError(err error, entity, op, id string) {
	fields := logging.Fields{
		"entity":    entity,
		"operation": op,
	}
	if id != "" {
		fields["id"] = id
	}
	r.Logger.WithError(err).WithFields(fields).Error("Store operation failed")
}
