// Package storetest is a behavioural suite run against every Store backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// MissingID returns an identifier that is well formed for the backend but
// matches nothing.
type MissingID func() string

func strPtr(s string) *string { return &s }

// Run exercises the Store contract.
func Run(t *testing.T, newStore Factory, missingID MissingID) {
	t.Run("CreateAndGetAuthor", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateAuthor(ctx, "J.R.R. Tolkien", 81)
		require.NoError(t, err)
		require.NotEmpty(t, a.ID)
		require.Equal(t, "J.R.R. Tolkien", a.Name)
		require.Equal(t, 81, a.Age)

		got, err := s.AuthorByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, a, got)
	})

	t.Run("AuthorsInInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.CreateAuthor(ctx, "Ursula K. Le Guin", 88)
		require.NoError(t, err)
		second, err := s.CreateAuthor(ctx, "Terry Pratchett", 66)
		require.NoError(t, err)

		all, err := s.Authors(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, first.ID, all[0].ID)
		require.Equal(t, second.ID, all[1].ID)
	})

	t.Run("MissingAuthor", func(t *testing.T) {
		s := newStore(t)
		_, err := s.AuthorByID(context.Background(), missingID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("MalformedIDIsNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.AuthorByID(ctx, "not-an-id")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.BookByID(ctx, "not-an-id")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.UpdateBook(ctx, "not-an-id", models.BookPatch{Genre: strPtr("x")})
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.DeleteBook(ctx, "not-an-id")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("CreateAndFilterBooks", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		tolkien, err := s.CreateAuthor(ctx, "J.R.R. Tolkien", 81)
		require.NoError(t, err)

		hobbit, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", tolkien.ID)
		require.NoError(t, err)
		require.NotEmpty(t, hobbit.ID)
		_, err = s.CreateBook(ctx, "Mort", "Fantasy", missingID())
		require.NoError(t, err)
		silmarillion, err := s.CreateBook(ctx, "The Silmarillion", "Mythopoeia", tolkien.ID)
		require.NoError(t, err)

		all, err := s.Books(ctx, models.BookFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)

		byAuthor, err := s.Books(ctx, models.BookFilter{AuthorID: &tolkien.ID})
		require.NoError(t, err)
		require.Len(t, byAuthor, 2)
		require.Equal(t, hobbit.ID, byAuthor[0].ID)
		require.Equal(t, silmarillion.ID, byAuthor[1].ID)

		none, err := s.Books(ctx, models.BookFilter{AuthorID: strPtr(missingID())})
		require.NoError(t, err)
		require.Empty(t, none)

		got, err := s.BookByID(ctx, hobbit.ID)
		require.NoError(t, err)
		require.Equal(t, hobbit, got)
	})

	t.Run("UpdateBookOnlySuppliedFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		b, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", "author-1")
		require.NoError(t, err)

		updated, err := s.UpdateBook(ctx, b.ID, models.BookPatch{Genre: strPtr("Adventure")})
		require.NoError(t, err)
		require.Equal(t, b.ID, updated.ID)
		require.Equal(t, "The Hobbit", updated.Name)
		require.Equal(t, "Adventure", updated.Genre)
		require.Equal(t, "author-1", updated.AuthorID)

		got, err := s.BookByID(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, updated, got)

		moved, err := s.UpdateBook(ctx, b.ID, models.BookPatch{Name: strPtr("There and Back Again"), AuthorID: strPtr("author-2")})
		require.NoError(t, err)
		require.Equal(t, "There and Back Again", moved.Name)
		require.Equal(t, "Adventure", moved.Genre)
		require.Equal(t, "author-2", moved.AuthorID)
	})

	t.Run("UpdateBookEmptyPatch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		b, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", "author-1")
		require.NoError(t, err)

		same, err := s.UpdateBook(ctx, b.ID, models.BookPatch{})
		require.NoError(t, err)
		require.Equal(t, b, same)

		_, err = s.UpdateBook(ctx, missingID(), models.BookPatch{})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UpdateMissingBook", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpdateBook(context.Background(), missingID(), models.BookPatch{Genre: strPtr("x")})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DeleteBook", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		b, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", "author-1")
		require.NoError(t, err)
		keep, err := s.CreateBook(ctx, "Mort", "Fantasy", "author-2")
		require.NoError(t, err)

		deleted, err := s.DeleteBook(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, b, deleted)

		_, err = s.BookByID(ctx, b.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.DeleteBook(ctx, b.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		rest, err := s.Books(ctx, models.BookFilter{})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		require.Equal(t, keep.ID, rest[0].ID)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}
