package graph

import (
	"github.com/graphql-go/graphql"

	"bookshelf/internal/models"
)

type objectTypes struct {
	author *graphql.Object
	book   *graphql.Object
}

// newTypes registers Author and Book in two passes: scalar fields first, then
// the relation fields once both objects exist.
func (r *Resolver) newTypes() objectTypes {
	t := objectTypes{
		author: graphql.NewObject(graphql.ObjectConfig{
			Name: "Author",
			Fields: graphql.Fields{
				"id":   &graphql.Field{Type: graphql.ID},
				"name": &graphql.Field{Type: graphql.String},
				"age":  &graphql.Field{Type: graphql.Int},
			},
		}),
		book: graphql.NewObject(graphql.ObjectConfig{
			Name: "Book",
			Fields: graphql.Fields{
				"id":       &graphql.Field{Type: graphql.ID},
				"name":     &graphql.Field{Type: graphql.String},
				"genre":    &graphql.Field{Type: graphql.String},
				"authorId": &graphql.Field{Type: graphql.ID},
			},
		}),
	}

	t.author.AddFieldConfig("books", &graphql.Field{
		Type: graphql.NewList(t.book),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			author, _ := p.Source.(*models.Author)
			books, err := r.DoGetAuthorBooks(p.Context, author)
			if err != nil {
				return nil, err
			}
			if books == nil {
				books = []*models.Book{}
			}
			return books, nil
		},
	})

	t.book.AddFieldConfig("author", &graphql.Field{
		Type: t.author,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			book, _ := p.Source.(*models.Book)
			author, err := r.DoGetBookAuthor(p.Context, book)
			if err != nil || author == nil {
				return nil, err
			}
			return author, nil
		},
	})

	return t
}
