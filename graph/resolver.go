package graph

import (
	"github.com/graphql-go/graphql"

	"bookshelf/internal/resolvers"
)

// Resolver binds the graphql-go type graph to the resolver layer.
type Resolver struct {
	*resolvers.Resolver
}

func NewResolver(r *resolvers.Resolver) *Resolver {
	return &Resolver{Resolver: r}
}

// NewSchema builds the executable schema. Object types are created per call
// so independent schemas never share type instances.
func NewSchema(r *resolvers.Resolver) (graphql.Schema, error) {
	gr := NewResolver(r)
	types := gr.newTypes()
	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    gr.rootQuery(types),
		Mutation: gr.rootMutation(types),
	})
}
