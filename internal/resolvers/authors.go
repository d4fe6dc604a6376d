package resolvers

import (
	"context"

	gqlerrors "bookshelf/internal/errors"
	"bookshelf/internal/models"
	"bookshelf/internal/store"
)

// DoGetAuthor returns the author with id, or nil when it does not exist.
func (r *Resolver) DoGetAuthor(ctx context.Context, id *string) (*models.Author, error) {
	if id == nil {
		return nil, gqlerrors.Validation("id required")
	}
	author, err := r.Store.AuthorByID(ctx, *id)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		r.logStoreError(err, "author", "get", *id)
		return nil, gqlerrors.Store("failed to fetch author", err)
	}
	return author, nil
}

func (r *Resolver) DoGetAuthors(ctx context.Context) ([]*models.Author, error) {
	authors, err := r.Store.Authors(ctx)
	if err != nil {
		r.logStoreError(err, "author", "list", "")
		return nil, gqlerrors.Store("failed to list authors", err)
	}
	return authors, nil
}

// DoGetAuthorBooks resolves Author.books.
func (r *Resolver) DoGetAuthorBooks(ctx context.Context, author *models.Author) ([]*models.Book, error) {
	if author == nil {
		return nil, nil
	}

	var (
		books []*models.Book
		err   error
	)
	if l := r.loaders(ctx); l != nil {
		books, err = l.BooksByAuthor.Load(ctx, author.ID)
	} else {
		books, err = r.Store.Books(ctx, models.BookFilter{AuthorID: &author.ID})
	}
	if err != nil {
		r.logStoreError(err, "book", "list_by_author", author.ID)
		return nil, gqlerrors.Store("failed to list books", err)
	}
	return books, nil
}

func (r *Resolver) DoAddAuthor(ctx context.Context, name string, age int) (*models.Author, error) {
	author, err := r.Store.CreateAuthor(ctx, name, age)
	if err != nil {
		r.logStoreError(err, "author", "create", "")
		return nil, gqlerrors.Store("failed to create author", err)
	}

	if l := r.loaders(ctx); l != nil {
		l.Author.Prime(author)
	}
	r.publish(ctx, EventAuthorCreated, "author", author.ID, author)
	return author, nil
}
