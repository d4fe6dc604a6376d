// Package bootstrap turns environment configuration into the service's
// backing store and event producer.
package bootstrap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bookshelf/graph"
	"bookshelf/internal/store"
	"bookshelf/internal/store/memory"
	"bookshelf/internal/store/mongodb"
	"bookshelf/internal/store/redisstore"
	"bookshelf/internal/store/sqlstore"
	"bookshelf/pkg/breaker"
	"bookshelf/pkg/config"
	"bookshelf/pkg/database"
	"bookshelf/pkg/kafka"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/monitoring"
	"bookshelf/pkg/redis"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

const defaultConnectTimeout = 10 * time.Second

// Config is the service configuration read from the environment.
type Config struct {
	StoreDriver    string
	MongoURI       string
	MongoDatabase  string
	DatabaseURL    string
	SQLitePath     string
	RedisURL       string
	RedisPrefix    string
	KafkaBrokers   []string
	KafkaTopic     string
	MaxDepth       int
	Playground     bool
	LoaderDedup    bool
	BreakerEnabled bool
	ConnectTimeout time.Duration
}

// LoadConfig reads Config from the process environment.
func LoadConfig() Config {
	return Config{
		StoreDriver:    strings.ToLower(config.GetEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:       config.GetEnv("MONGO_URI", ""),
		MongoDatabase:  config.GetEnv("MONGO_DATABASE", "bookshelf"),
		DatabaseURL:    config.GetEnv("DATABASE_URL", ""),
		SQLitePath:     config.GetEnv("SQLITE_PATH", "bookshelf.db"),
		RedisURL:       config.GetEnv("REDIS_URL", ""),
		RedisPrefix:    config.GetEnv("REDIS_PREFIX", "bookshelf"),
		KafkaBrokers:   config.GetEnvList("KAFKA_BROKERS"),
		KafkaTopic:     config.GetEnv("KAFKA_TOPIC", "bookshelf_events"),
		MaxDepth:       config.GetEnvInt("GRAPHQL_MAX_DEPTH", graph.DefaultMaxDepth),
		Playground:     config.GetEnvBool("GRAPHQL_PLAYGROUND_ENABLED", config.GetEnv("GIN_MODE", "debug") != "release"),
		LoaderDedup:    config.GetEnvBool("LOADER_DEDUP_ENABLED", true),
		BreakerEnabled: config.GetEnvBool("STORE_BREAKER_ENABLED", true),
		ConnectTimeout: config.GetEnvDuration("STORE_CONNECT_TIMEOUT", defaultConnectTimeout),
	}
}

// RequiredSettings maps the environment variables the selected driver
// cannot run without to their current values.
func (c Config) RequiredSettings() map[string]string {
	switch c.StoreDriver {
	case DriverMongo:
		return map[string]string{"MONGO_URI": c.MongoURI, "MONGO_DATABASE": c.MongoDatabase}
	case DriverPostgres:
		return map[string]string{"DATABASE_URL": c.DatabaseURL}
	case DriverSQLite:
		return map[string]string{"SQLITE_PATH": c.SQLitePath}
	case DriverRedis:
		return map[string]string{"REDIS_URL": c.RedisURL}
	default:
		return map[string]string{}
	}
}

// Validate reports an unknown driver or missing settings for a known one.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres, DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	missing := make([]string, 0, 2)
	for key, value := range c.RequiredSettings() {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s required for store driver %q", strings.Join(missing, ", "), c.StoreDriver)
	}
	return nil
}

// OpenStore connects the configured backend. The caller owns the returned
// store and must Close it.
func OpenStore(ctx context.Context, cfg Config, logger logging.Logger) (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case DriverMongo:
		return mongodb.Connect(connectCtx, mongodb.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			ConnectTimeout: cfg.ConnectTimeout,
		}, logger)

	case DriverPostgres, DriverSQLite:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		if cfg.StoreDriver == DriverSQLite {
			dbCfg = database.SQLiteConfig(cfg.SQLitePath)
		}
		db, err := database.Connect(connectCtx, dbCfg, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(connectCtx, db, dbCfg.Driver); err != nil {
			_ = db.Close()
			return nil, err
		}
		dialect, err := sqlstore.DialectFor(dbCfg.Driver)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlstore.New(db, dialect), nil

	case DriverRedis:
		client, err := redis.NewClientFromURL(connectCtx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.WithField("prefix", cfg.RedisPrefix).Info("Redis store connected")
		return redisstore.New(client, cfg.RedisPrefix), nil

	default:
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

// Instrument wraps s with query metrics from mc and, when enabled, a circuit
// breaker that fails fast while the backend is down.
func Instrument(s store.Store, cfg Config, mc *monitoring.MetricsCollector, logger logging.Logger) *store.Instrumented {
	opts := store.InstrumentOptions{}
	if mc != nil {
		opts.Queries, opts.Duration = mc.CreateDatabaseMetrics()
	}
	if cfg.BreakerEnabled {
		bc := breaker.DefaultConfig("store-" + cfg.StoreDriver)
		bc.IsFailure = store.BreakerFailure
		bc.Logger = logger
		opts.Breaker = breaker.New(bc)
		logger.WithFields(logging.Fields{
			"circuit_breaker": opts.Breaker.Name(),
			"state":           opts.Breaker.State().String(),
		}).Info("Store circuit breaker enabled")
	}
	return store.NewInstrumented(s, opts)
}

// OpenProducer returns nil when no brokers are configured.
func OpenProducer(cfg Config, logger logging.Logger) (*kafka.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set; entity events disabled")
		return nil, nil
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		Source:  "bookshelf",
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logging.Fields{
		"brokers": strings.Join(cfg.KafkaBrokers, ","),
		"topic":   producer.Topic(),
	}).Info("Kafka producer created")
	return producer, nil
}
