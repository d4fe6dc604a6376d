package resolvers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"bookshelf/internal/loaders"
	"bookshelf/internal/store"
	"bookshelf/pkg/kafka"
	"bookshelf/pkg/logging"
)

// GraphQLMetrics holds all Prometheus metrics for GraphQL operations
type GraphQLMetrics struct {
	Operations     *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	LoaderRequests *prometheus.CounterVec
}

// EventPublisher receives entity-change events after successful mutations.
type EventPublisher interface {
	PublishEntityEvent(ctx context.Context, evt *kafka.EntityEvent) error
}

// Resolver represents the GraphQL resolver
type Resolver struct {
	Store  store.Store
	Logger logging.Logger
	// Metrics and Events are optional.
	Metrics *GraphQLMetrics
	Events  EventPublisher
	// DedupEnabled routes relation lookups through request-scoped loaders.
	DedupEnabled bool
}

// NewResolver creates a new GraphQL resolver
func NewResolver(s store.Store, logger logging.Logger, metrics *GraphQLMetrics, events EventPublisher, dedup bool) *Resolver {
	return &Resolver{
		Store:        s,
		Logger:       logger,
		Metrics:      metrics,
		Events:       events,
		DedupEnabled: dedup,
	}
}

// NewLoaders returns fresh loaders for one request, or nil when de-dup is off.
func (r *Resolver) NewLoaders() *loaders.Loaders {
	if !r.DedupEnabled {
		return nil
	}
	var requests *prometheus.CounterVec
	if r.Metrics != nil {
		requests = r.Metrics.LoaderRequests
	}
	return loaders.New(r.Store, requests)
}

func (r *Resolver) loaders(ctx context.Context) *loaders.Loaders {
	if !r.DedupEnabled {
		return nil
	}
	return loaders.FromContext(ctx)
}
