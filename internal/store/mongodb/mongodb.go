// Package mongodb implements store.Store on MongoDB. Identifiers are the hex
// form of document ObjectIDs.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"bookshelf/internal/models"
	"bookshelf/internal/store"
	"bookshelf/pkg/logging"
)

const (
	authorsCollection = "authors"
	booksCollection   = "books"

	defaultConnectTimeout = 10 * time.Second
)

type authorDoc struct {
	ID   bson.ObjectID `bson:"_id,omitempty"`
	Name string        `bson:"name"`
	Age  int           `bson:"age"`
}

type bookDoc struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Name     string        `bson:"name"`
	Genre    string        `bson:"genre"`
	AuthorID string        `bson:"authorId"`
}

func (d authorDoc) model() *models.Author {
	return &models.Author{ID: d.ID.Hex(), Name: d.Name, Age: d.Age}
}

func (d bookDoc) model() *models.Book {
	return &models.Book{ID: d.ID.Hex(), Name: d.Name, Genre: d.Genre, AuthorID: d.AuthorID}
}

// Config holds the connection settings.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type Store struct {
	client  *mongo.Client
	authors *mongo.Collection
	books   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the primary is reachable and ensures indexes.
func Connect(ctx context.Context, cfg Config, logger logging.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := New(client, cfg.Database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.WithFields(logging.Fields{
		"database": cfg.Database,
	}).Info("MongoDB connected")

	return s, nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:  client,
		authors: db.Collection(authorsCollection),
		books:   db.Collection(booksCollection),
	}
}

// EnsureIndexes creates the authorId index used by relation lookups.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.books.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "authorId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create books index: %w", err)
	}
	return nil
}

// parseID converts a hex id. Malformed ids match nothing.
func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, store.ErrNotFound
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// insertion order; ObjectIDs lead with their creation time
var byID = bson.D{{Key: "_id", Value: 1}}

func (s *Store) AuthorByID(ctx context.Context, id string) (*models.Author, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("get author %s: %w", id, err)
	}
	var doc authorDoc
	if err := s.authors.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get author %s: %w", id, notFound(err))
	}
	return doc.model(), nil
}

func (s *Store) Authors(ctx context.Context) ([]*models.Author, error) {
	cur, err := s.authors.Find(ctx, bson.D{}, options.Find().SetSort(byID))
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	var docs []authorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return lo.Map(docs, func(d authorDoc, _ int) *models.Author { return d.model() }), nil
}

func (s *Store) CreateAuthor(ctx context.Context, name string, age int) (*models.Author, error) {
	doc := authorDoc{ID: bson.NewObjectID(), Name: name, Age: age}
	if _, err := s.authors.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) BookByID(ctx context.Context, id string) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	var doc bookDoc
	if err := s.books.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, notFound(err))
	}
	return doc.model(), nil
}

func bookFilter(filter models.BookFilter) bson.D {
	f := bson.D{}
	if filter.AuthorID != nil {
		f = append(f, bson.E{Key: "authorId", Value: *filter.AuthorID})
	}
	return f
}

func (s *Store) Books(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	cur, err := s.books.Find(ctx, bookFilter(filter), options.Find().SetSort(byID))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return lo.Map(docs, func(d bookDoc, _ int) *models.Book { return d.model() }), nil
}

func (s *Store) CreateBook(ctx context.Context, name, genre, authorID string) (*models.Book, error) {
	doc := bookDoc{ID: bson.NewObjectID(), Name: name, Genre: genre, AuthorID: authorID}
	if _, err := s.books.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return doc.model(), nil
}

// setDocument renders the $set update for the supplied patch fields only.
func setDocument(patch models.BookPatch) bson.D {
	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Genre != nil {
		set = append(set, bson.E{Key: "genre", Value: *patch.Genre})
	}
	if patch.AuthorID != nil {
		set = append(set, bson.E{Key: "authorId", Value: *patch.AuthorID})
	}
	return bson.D{{Key: "$set", Value: set}}
}

func (s *Store) UpdateBook(ctx context.Context, id string, patch models.BookPatch) (*models.Book, error) {
	if patch.IsEmpty() {
		return s.BookByID(ctx, id)
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("update book %s: %w", id, err)
	}

	var doc bookDoc
	err = s.books.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		setDocument(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("update book %s: %w", id, notFound(err))
	}
	return doc.model(), nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, fmt.Errorf("delete book %s: %w", id, err)
	}
	var doc bookDoc
	if err := s.books.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("delete book %s: %w", id, notFound(err))
	}
	return doc.model(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
