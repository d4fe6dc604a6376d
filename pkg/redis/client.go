package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Mode selects the Redis deployment topology.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeSentinel Mode = "sentinel"
	ModeCluster  Mode = "cluster"
)

// Config configures a topology-agnostic Redis connection.
type Config struct {
	Mode         Mode
	Addrs        []string // single: 1 addr, sentinel: sentinel addrs, cluster: seed nodes
	MasterName   string   // sentinel only
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ConfigFromURL builds a Config from a redis:// or rediss:// URL. A
// comma-separated host list in the URL selects cluster mode.
func ConfigFromURL(redisURL string) (Config, error) {
	if redisURL == "" {
		return Config{}, fmt.Errorf("redis url is required")
	}

	var hosts []string
	if i := strings.Index(redisURL, "://"); i >= 0 {
		rest := redisURL[i+3:]
		hostPart := rest
		if j := strings.IndexAny(rest, "/?"); j >= 0 {
			hostPart = rest[:j]
		}
		if at := strings.LastIndex(hostPart, "@"); at >= 0 {
			hostPart = hostPart[at+1:]
		}
		hosts = strings.Split(hostPart, ",")
		if len(hosts) > 1 {
			redisURL = strings.Replace(redisURL, hostPart, hosts[0], 1)
		}
	}

	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return Config{}, fmt.Errorf("parse redis url: %w", err)
	}

	cfg := Config{
		Mode:         ModeSingle,
		Addrs:        []string{opts.Addr},
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	if len(hosts) > 1 {
		cfg.Mode = ModeCluster
		cfg.Addrs = hosts
	}
	return cfg, nil
}

// NewUniversalClient creates a Redis client that works with single-node,
// Sentinel, or Cluster topologies based on Config.Mode. go-redis routes
// internally: MasterName set → Sentinel, multiple Addrs → Cluster,
// single Addr → standalone.
func NewUniversalClient(ctx context.Context, cfg Config) (goredis.UniversalClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("at least one redis address is required")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultDialTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultDialTimeout
	}

	opts := &goredis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	client := goredis.NewUniversalClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewClientFromURL parses redisURL and connects.
func NewClientFromURL(ctx context.Context, redisURL string) (goredis.UniversalClient, error) {
	cfg, err := ConfigFromURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewUniversalClient(ctx, cfg)
}
