package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"bookshelf/graph"
	"bookshelf/internal/bootstrap"
	"bookshelf/internal/handlers"
	"bookshelf/internal/resolvers"
	"bookshelf/pkg/config"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/monitoring"
	"bookshelf/pkg/server"
	"bookshelf/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("bookshelf")

	// Load environment variables
	config.LoadEnv(logger)

	logger.WithFields(logging.Fields{
		"version": version.Version,
		"commit":  version.GetShortCommit(),
	}).Info("Starting Bookshelf GraphQL service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.LoadConfig()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("bookshelf", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("bookshelf", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(cfg.RequiredSettings()))

	backend, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("Failed to open store")
	}
	st := bootstrap.Instrument(backend, cfg, metricsCollector, logger)
	defer func() {
		if err := st.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close store")
		}
	}()
	healthChecker.AddCheck("store", monitoring.PingHealthCheck(cfg.StoreDriver, st))

	producer, err := bootstrap.OpenProducer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka producer")
	}
	var events resolvers.EventPublisher
	if producer != nil {
		events = producer
		defer producer.Close()
		healthChecker.AddCheck("kafka", monitoring.PingHealthCheck("kafka", producer))
	}

	logger.WithField("checks", healthChecker.Names()).Info("Health checks registered")

	// Create custom GraphQL metrics
	graphqlMetrics := &resolvers.GraphQLMetrics{
		Operations:     metricsCollector.NewCounter("graphql_operations_total", "Total GraphQL operations", []string{"operation", "status"}),
		Duration:       metricsCollector.NewHistogram("graphql_operation_duration_seconds", "GraphQL operation duration", []string{"operation"}, nil),
		LoaderRequests: metricsCollector.NewCounter("loader_requests_total", "Relation loader lookups", []string{"loader", "result"}),
	}

	resolver := resolvers.NewResolver(st, logger, graphqlMetrics, events, cfg.LoaderDedup)
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build GraphQL schema")
	}

	// Setup router with unified monitoring
	app := server.SetupServiceRouter(logger, "bookshelf", healthChecker, metricsCollector)

	app.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "bookshelf",
			"status":  "ready",
			"store":   cfg.StoreDriver,
			"build":   version.GetInfo(),
		})
	})

	handlers.NewGraphQLHandlers(schema, resolver, logger, cfg.MaxDepth).Register(app, cfg.Playground)
	if cfg.MaxDepth > 0 {
		logger.WithField("max_depth", cfg.MaxDepth).Info("GraphQL depth limit enabled")
	}
	if cfg.Playground {
		logger.Info("GraphQL Playground enabled at GET /graphql")
	}

	serverConfig := server.DefaultConfig("bookshelf", "4000")
	if err := server.Start(ctx, serverConfig, app, logger); err != nil {
		logger.WithError(err).Error("Server startup failed")
	}
}
