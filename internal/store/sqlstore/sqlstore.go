// Package sqlstore implements store.Store on PostgreSQL or SQLite through
// database/sql, building statements with squirrel.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/pkg/database"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Driver      string
	Placeholder sq.PlaceholderFormat
	// OrderColumn yields insertion order for list queries.
	OrderColumn string
	// LockSuffix is appended to the read inside update/delete transactions.
	LockSuffix string
}

var (
	Postgres = Dialect{Driver: database.DriverPostgres, Placeholder: sq.Dollar, OrderColumn: "seq", LockSuffix: "FOR UPDATE"}
	SQLite   = Dialect{Driver: database.DriverSQLite, Placeholder: sq.Question, OrderColumn: "rowid"}
)

// DialectFor returns the dialect registered for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case database.DriverPostgres:
		return Postgres, nil
	case database.DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

var (
	authorColumns = []string{"id", "name", "age"}
	bookColumns   = []string{"id", "name", "genre", "author_id"}
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	newID   func() string
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		newID:   func() string { return uuid.New().String() },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row rowScanner) (*models.Author, error) {
	var a models.Author
	if err := row.Scan(&a.ID, &a.Name, &a.Age); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanBook(row rowScanner) (*models.Book, error) {
	var b models.Book
	if err := row.Scan(&b.ID, &b.Name, &b.Genre, &b.AuthorID); err != nil {
		return nil, err
	}
	return &b, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) AuthorByID(ctx context.Context, id string) (*models.Author, error) {
	query, args, err := s.sb.Select(authorColumns...).From("authors").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build author query: %w", err)
	}
	a, err := scanAuthor(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("get author %s: %w", id, notFound(err))
	}
	return a, nil
}

func (s *Store) Authors(ctx context.Context) ([]*models.Author, error) {
	query, args, err := s.sb.Select(authorColumns...).From("authors").OrderBy(s.dialect.OrderColumn).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build authors query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	authors := []*models.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

func (s *Store) CreateAuthor(ctx context.Context, name string, age int) (*models.Author, error) {
	a := &models.Author{ID: s.newID(), Name: name, Age: age}
	query, args, err := s.sb.Insert("authors").Columns(authorColumns...).Values(a.ID, a.Name, a.Age).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build author insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	return a, nil
}

func (s *Store) BookByID(ctx context.Context, id string) (*models.Book, error) {
	return s.bookByID(ctx, s.db, id, false)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) bookByID(ctx context.Context, q queryer, id string, lock bool) (*models.Book, error) {
	builder := s.sb.Select(bookColumns...).From("books").Where(sq.Eq{"id": id})
	if lock && s.dialect.LockSuffix != "" {
		builder = builder.Suffix(s.dialect.LockSuffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}
	b, err := scanBook(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, notFound(err))
	}
	return b, nil
}

func (s *Store) Books(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	builder := s.sb.Select(bookColumns...).From("books")
	if filter.AuthorID != nil {
		builder = builder.Where(sq.Eq{"author_id": *filter.AuthorID})
	}
	query, args, err := builder.OrderBy(s.dialect.OrderColumn).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build books query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []*models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (s *Store) CreateBook(ctx context.Context, name, genre, authorID string) (*models.Book, error) {
	b := &models.Book{ID: s.newID(), Name: name, Genre: genre, AuthorID: authorID}
	query, args, err := s.sb.Insert("books").Columns(bookColumns...).Values(b.ID, b.Name, b.Genre, b.AuthorID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build book insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (s *Store) UpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	if patch.IsEmpty() {
		return s.BookByID(ctx, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.bookByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	update := s.sb.Update("books").Where(sq.Eq{"id": id})
	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
	}
	if patch.Genre != nil {
		update = update.Set("genre", *patch.Genre)
	}
	if patch.AuthorID != nil {
		update = update.Set("author_id", *patch.AuthorID)
	}
	query, args, err := update.Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build book update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update book %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	updated := patch.Apply(*current)
	return &updated, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.bookByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	query, args, err := s.sb.Delete("books").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build book delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("delete book %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return current, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
