package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultProduceTimeout = 5 * time.Second

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Source   string
	Timeout  time.Duration
}

// Producer publishes entity events to a single topic.
type Producer struct {
	client  *kgo.Client
	logger  *logrus.Logger
	topic   string
	source  string
	timeout time.Duration
}

// NewProducer creates a new Kafka producer. The client connects lazily.
func NewProducer(cfg ProducerConfig, logger *logrus.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = cfg.Source
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProduceTimeout
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10 * time.Millisecond),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Producer{
		client:  client,
		logger:  logger,
		topic:   cfg.Topic,
		source:  cfg.Source,
		timeout: cfg.Timeout,
	}, nil
}

func (p *Producer) Close() error {
	p.client.Close()
	return nil
}

// Topic returns the topic events are published to.
func (p *Producer) Topic() string {
	return p.topic
}

func buildRecord(topic string, key, value []byte, headers map[string]string) *kgo.Record {
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		record.Headers = append(record.Headers, kgo.RecordHeader{
			Key:   k,
			Value: []byte(headers[k]),
		})
	}
	return record
}

// ProduceMessage synchronously produces one record.
func (p *Producer) ProduceMessage(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.client.ProduceSync(ctx, buildRecord(topic, key, value, headers))
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// PublishEntityEvent publishes evt keyed by its entity id.
func (p *Producer) PublishEntityEvent(ctx context.Context, evt *EntityEvent) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if evt.Source == "" {
		evt.Source = p.source
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.ProduceMessage(ctx, p.topic, []byte(evt.EntityID), value, evt.Headers())
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return nil
}
