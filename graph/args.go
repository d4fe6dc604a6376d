package graph

import (
	"math"

	gqlerrors "bookshelf/internal/errors"
	"bookshelf/internal/models"
)

// optionalString returns nil when the argument was omitted or null.
func optionalString(args map[string]interface{}, name string) *string {
	if v, ok := args[name].(string); ok {
		return &v
	}
	return nil
}

func requiredString(args map[string]interface{}, name string) (string, error) {
	v := optionalString(args, name)
	if v == nil {
		return "", gqlerrors.Validation("%s required", name)
	}
	return *v, nil
}

// requiredInt also enforces the 32-bit range of GraphQL Int; graphql-go
// passes larger literals through and then serializes them as null.
func requiredInt(args map[string]interface{}, name string) (int, error) {
	v, ok := args[name].(int)
	if !ok {
		return 0, gqlerrors.Validation("%s required", name)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, gqlerrors.Validation("%s out of range", name)
	}
	return v, nil
}

func bookPatch(args map[string]interface{}) models.BookPatch {
	return models.BookPatch{
		Name:     optionalString(args, "name"),
		Genre:    optionalString(args, "genre"),
		AuthorID: optionalString(args, "authorId"),
	}
}
