package graph

import (
	"github.com/graphql-go/graphql"
)

// ============================================================================
// Root Query
// ============================================================================

func (r *Resolver) rootQuery(t objectTypes) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQueryType",
		Fields: graphql.Fields{
			"book": &graphql.Field{
				Type: t.book,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					book, err := r.DoGetBook(p.Context, optionalString(p.Args, "id"))
					if err != nil || book == nil {
						return nil, err
					}
					return book, nil
				},
			},
			"author": &graphql.Field{
				Type: t.author,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					author, err := r.DoGetAuthor(p.Context, optionalString(p.Args, "id"))
					if err != nil || author == nil {
						return nil, err
					}
					return author, nil
				},
			},
			"books": &graphql.Field{
				Type: graphql.NewList(t.book),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					books, err := r.DoGetBooks(p.Context)
					if err != nil {
						return nil, err
					}
					return books, nil
				},
			},
			"authors": &graphql.Field{
				Type: graphql.NewList(t.author),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					authors, err := r.DoGetAuthors(p.Context)
					if err != nil {
						return nil, err
					}
					return authors, nil
				},
			},
		},
	})
}

// ============================================================================
// Mutation
// ============================================================================

func (r *Resolver) rootMutation(t objectTypes) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addAuthor": &graphql.Field{
				Type: t.author,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"age":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name, err := requiredString(p.Args, "name")
					if err != nil {
						return nil, err
					}
					age, err := requiredInt(p.Args, "age")
					if err != nil {
						return nil, err
					}
					author, err := r.DoAddAuthor(p.Context, name, age)
					if err != nil {
						return nil, err
					}
					return author, nil
				},
			},
			"addBook": &graphql.Field{
				Type: t.book,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"genre":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"authorId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name, err := requiredString(p.Args, "name")
					if err != nil {
						return nil, err
					}
					genre, err := requiredString(p.Args, "genre")
					if err != nil {
						return nil, err
					}
					authorID, err := requiredString(p.Args, "authorId")
					if err != nil {
						return nil, err
					}
					book, err := r.DoAddBook(p.Context, name, genre, authorID)
					if err != nil {
						return nil, err
					}
					return book, nil
				},
			},
			"updateBook": &graphql.Field{
				Type: t.book,
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
					"genre":    &graphql.ArgumentConfig{Type: graphql.String},
					"authorId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := requiredString(p.Args, "id")
					if err != nil {
						return nil, err
					}
					book, err := r.DoUpdateBook(p.Context, id, bookPatch(p.Args))
					if err != nil {
						return nil, err
					}
					return book, nil
				},
			},
			"deleteBook": &graphql.Field{
				Type: t.book,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := requiredString(p.Args, "id")
					if err != nil {
						return nil, err
					}
					book, err := r.DoDeleteBook(p.Context, id)
					if err != nil || book == nil {
						return nil, err
					}
					return book, nil
				},
			},
		},
	})
}
