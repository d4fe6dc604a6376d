package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"bookshelf/graph"
	"bookshelf/internal/loaders"
	"bookshelf/internal/resolvers"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/middleware"
)

const maxRequestBytes = 1 << 20

type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type errorBody struct {
	Errors []errorMessage `json:"errors"`
}

type errorMessage struct {
	Message string `json:"message"`
}

// GraphQLHandlers serves the GraphQL endpoint.
type GraphQLHandlers struct {
	schema   graphql.Schema
	resolver *resolvers.Resolver
	logger   logging.Logger
	maxDepth int
}

// NewGraphQLHandlers creates the endpoint handlers. maxDepth <= 0 disables
// the depth limit.
func NewGraphQLHandlers(schema graphql.Schema, resolver *resolvers.Resolver, logger logging.Logger, maxDepth int) *GraphQLHandlers {
	return &GraphQLHandlers{
		schema:   schema,
		resolver: resolver,
		logger:   logger,
		maxDepth: maxDepth,
	}
}

// Register mounts POST /graphql and, when enabled, the explorer on GET /graphql.
func (h *GraphQLHandlers) Register(router gin.IRouter, playgroundEnabled bool) {
	router.POST("/graphql", h.AttachLoaders(), h.Execute())
	if playgroundEnabled {
		router.GET("/graphql", gin.WrapH(playground.Handler("Bookshelf", "/graphql")))
	}
}

// AttachLoaders gives each request fresh relation loaders.
func (h *GraphQLHandlers) AttachLoaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l := h.resolver.NewLoaders(); l != nil {
			c.Request = c.Request.WithContext(loaders.Attach(c.Request.Context(), l))
		}
		c.Next()
	}
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Errors: []errorMessage{{Message: message}}})
}

// Execute runs one query document.
func (h *GraphQLHandlers) Execute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

		var req graphQLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.GetContextLogger(c, h.logger).WithError(err).Debug("Invalid GraphQL request body")
			badRequest(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			badRequest(c, "query is required")
			return
		}

		start := time.Now()
		label := "unknown"
		op, err := graph.AnalyzeQuery(req.Query, req.OperationName)
		if err == nil {
			label = op.Label()
		}

		var result *graphql.Result
		if err == nil && h.maxDepth > 0 && op.Depth > h.maxDepth {
			result = &graphql.Result{Errors: []gqlerrors.FormattedError{
				gqlerrors.NewFormattedError(fmt.Sprintf("query exceeds maximum depth of %d (got %d)", h.maxDepth, op.Depth)),
			}}
		} else {
			result = graphql.Do(graphql.Params{
				Schema:         h.schema,
				RequestString:  req.Query,
				VariableValues: req.Variables,
				OperationName:  req.OperationName,
				Context:        c.Request.Context(),
			})
		}

		h.observe(label, result, time.Since(start))
		if result.HasErrors() {
			middleware.GetContextLogger(c, h.logger).WithFields(logging.Fields{
				"operation": label,
				"errors":    len(result.Errors),
			}).Debug("GraphQL operation returned errors")
		}

		c.JSON(http.StatusOK, result)
	}
}

func (h *GraphQLHandlers) observe(label string, result *graphql.Result, elapsed time.Duration) {
	m := h.resolver.Metrics
	if m == nil {
		return
	}
	status := "success"
	if result.HasErrors() {
		status = "error"
	}
	if m.Operations != nil {
		m.Operations.WithLabelValues(label, status).Inc()
	}
	if m.Duration != nil {
		m.Duration.WithLabelValues(label).Observe(elapsed.Seconds())
	}
}
