package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/internal/store/storetest"
)

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mr
}

func TestRedisStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newRedisStore(t)
		return s
	}, func() string { return uuid.New().String() })
}

func TestRedisKeyLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	b, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", "a1")
	require.NoError(t, err)

	require.Equal(t, "The Hobbit", mr.HGet("test:book:"+b.ID, "name"))
	require.Equal(t, "a1", mr.HGet("test:book:"+b.ID, "author_id"))

	members, err := mr.ZMembers("test:author_books:a1")
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, members)
}

func TestRedisUpdateBookMovesAuthorIndex(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	b, err := s.CreateBook(ctx, "The Hobbit", "Fantasy", "a1")
	require.NoError(t, err)

	newAuthor := "a2"
	_, err = s.UpdateBook(ctx, b.ID, models.BookPatch{AuthorID: &newAuthor})
	require.NoError(t, err)

	members, err := mr.ZMembers("test:author_books:a2")
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, members)

	byOld, err := s.Books(ctx, models.BookFilter{AuthorID: strPtr("a1")})
	require.NoError(t, err)
	require.Empty(t, byOld)
}

func TestRedisUnavailable(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.Authors(context.Background())
	require.Error(t, err)
	require.False(t, store.IsNotFound(err))
	require.Error(t, s.Ping(context.Background()))
}

func strPtr(s string) *string { return &s }
