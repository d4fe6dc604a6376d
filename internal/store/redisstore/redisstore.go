// Package redisstore implements store.Store on Redis. Entities are hashes;
// insertion order lives in sorted sets scored by a global sequence.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
)

const maxTxAttempts = 5

type Store struct {
	client goredis.UniversalClient
	prefix string
	newID  func() string
}

var _ store.Store = (*Store)(nil)

func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "bookshelf"
	}
	return &Store{
		client: client,
		prefix: prefix,
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *Store) keySeq() string                  { return s.prefix + ":seq" }
func (s *Store) keyAuthor(id string) string      { return s.prefix + ":author:" + id }
func (s *Store) keyAuthors() string              { return s.prefix + ":authors" }
func (s *Store) keyBook(id string) string        { return s.prefix + ":book:" + id }
func (s *Store) keyBooks() string                { return s.prefix + ":books" }
func (s *Store) keyAuthorBooks(id string) string { return s.prefix + ":author_books:" + id }

func authorFromHash(id string, h map[string]string) (*models.Author, error) {
	age, err := strconv.Atoi(h["age"])
	if err != nil {
		return nil, fmt.Errorf("decode author %s age: %w", id, err)
	}
	return &models.Author{ID: id, Name: h["name"], Age: age}, nil
}

func bookFromHash(id string, h map[string]string) *models.Book {
	return &models.Book{ID: id, Name: h["name"], Genre: h["genre"], AuthorID: h["author_id"]}
}

func (s *Store) AuthorByID(ctx context.Context, id string) (*models.Author, error) {
	h, err := s.client.HGetAll(ctx, s.keyAuthor(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get author %s: %w", id, err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("get author %s: %w", id, store.ErrNotFound)
	}
	return authorFromHash(id, h)
}

// hashes loads the hashes for ids in one pipeline, skipping ids whose hash
// has vanished since the index was read.
func (s *Store) hashes(ctx context.Context, ids []string, key func(string) string) ([]map[string]string, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]map[string]string, 0, len(ids))
	kept := make([]string, 0, len(ids))
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		out = append(out, h)
		kept = append(kept, ids[i])
	}
	return out, kept, nil
}

func (s *Store) Authors(ctx context.Context) ([]*models.Author, error) {
	ids, err := s.client.ZRange(ctx, s.keyAuthors(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	hs, kept, err := s.hashes(ctx, ids, s.keyAuthor)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	authors := make([]*models.Author, 0, len(hs))
	for i, h := range hs {
		a, err := authorFromHash(kept[i], h)
		if err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, nil
}

func (s *Store) nextSeq(ctx context.Context) (float64, error) {
	seq, err := s.client.Incr(ctx, s.keySeq()).Result()
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return float64(seq), nil
}

func (s *Store) CreateAuthor(ctx context.Context, name string, age int) (*models.Author, error) {
	a := &models.Author{ID: s.newID(), Name: name, Age: age}
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return nil, err
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, s.keyAuthor(a.ID), "name", a.Name, "age", strconv.Itoa(a.Age))
		p.ZAdd(ctx, s.keyAuthors(), goredis.Z{Score: seq, Member: a.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	return a, nil
}

func (s *Store) BookByID(ctx context.Context, id string) (*models.Book, error) {
	return s.bookByID(ctx, s.client, id)
}

func (s *Store) bookByID(ctx context.Context, c goredis.Cmdable, id string) (*models.Book, error) {
	h, err := c.HGetAll(ctx, s.keyBook(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("get book %s: %w", id, store.ErrNotFound)
	}
	return bookFromHash(id, h), nil
}

func (s *Store) Books(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	index := s.keyBooks()
	if filter.AuthorID != nil {
		index = s.keyAuthorBooks(*filter.AuthorID)
	}
	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	hs, kept, err := s.hashes(ctx, ids, s.keyBook)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	books := lo.Map(hs, func(h map[string]string, i int) *models.Book {
		return bookFromHash(kept[i], h)
	})
	return lo.Filter(books, func(b *models.Book, _ int) bool {
		return filter.Matches(*b)
	}), nil
}

func (s *Store) CreateBook(ctx context.Context, name, genre, authorID string) (*models.Book, error) {
	b := &models.Book{ID: s.newID(), Name: name, Genre: genre, AuthorID: authorID}
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return nil, err
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, s.keyBook(b.ID), "name", b.Name, "genre", b.Genre, "author_id", b.AuthorID)
		p.ZAdd(ctx, s.keyBooks(), goredis.Z{Score: seq, Member: b.ID})
		p.ZAdd(ctx, s.keyAuthorBooks(b.AuthorID), goredis.Z{Score: seq, Member: b.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

// watch runs fn under WATCH on key, retrying when another client wins the race.
func (s *Store) watch(ctx context.Context, key string, fn func(tx *goredis.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.client.Watch(ctx, fn, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *Store) UpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	if patch.IsEmpty() {
		return s.BookByID(ctx, id)
	}

	var updated models.Book
	err := s.watch(ctx, s.keyBook(id), func(tx *goredis.Tx) error {
		current, err := s.bookByID(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(*current)

		var seq float64
		moved := updated.AuthorID != current.AuthorID
		if moved {
			seq, err = tx.ZScore(ctx, s.keyBooks(), id).Result()
			if err != nil {
				return fmt.Errorf("book %s sequence: %w", id, err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HSet(ctx, s.keyBook(id), "name", updated.Name, "genre", updated.Genre, "author_id", updated.AuthorID)
			if moved {
				p.ZRem(ctx, s.keyAuthorBooks(current.AuthorID), id)
				p.ZAdd(ctx, s.keyAuthorBooks(updated.AuthorID), goredis.Z{Score: seq, Member: id})
			}
			return nil
		})
		return err
	})
	if err != nil {
		if store.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update book %s: %w", id, err)
	}
	return &updated, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	var deleted *models.Book
	err := s.watch(ctx, s.keyBook(id), func(tx *goredis.Tx) error {
		current, err := s.bookByID(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Del(ctx, s.keyBook(id))
			p.ZRem(ctx, s.keyBooks(), id)
			p.ZRem(ctx, s.keyAuthorBooks(current.AuthorID), id)
			return nil
		})
		if err == nil {
			deleted = current
		}
		return err
	})
	if err != nil {
		if store.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("delete book %s: %w", id, err)
	}
	return deleted, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
