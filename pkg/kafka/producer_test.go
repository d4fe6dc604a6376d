package kafka

import (
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewEntityEvent(t *testing.T) {
	evt := NewEntityEvent("book.created", "book", "b1", map[string]string{"name": "The Hobbit"})
	if evt.EventID == "" {
		t.Fatalf("expected event id")
	}
	if evt.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}

	evt.Source = "bookshelf"
	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"event_id", "event_type", "entity", "entity_id", "source", "timestamp", "data"} {
		if _, ok := decoded[field]; !ok {
			t.Fatalf("missing field %q in %s", field, raw)
		}
	}
}

func TestBuildRecordHeadersSorted(t *testing.T) {
	evt := &EntityEvent{EventType: "book.deleted", Source: "bookshelf"}
	rec := buildRecord("bookshelf_events", []byte("b1"), []byte("{}"), evt.Headers())

	if rec.Topic != "bookshelf_events" || string(rec.Key) != "b1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(rec.Headers))
	}
	if rec.Headers[0].Key != "event_type" || string(rec.Headers[0].Value) != "book.deleted" {
		t.Fatalf("unexpected first header %+v", rec.Headers[0])
	}
	if rec.Headers[1].Key != "source" || string(rec.Headers[1].Value) != "bookshelf" {
		t.Fatalf("unexpected second header %+v", rec.Headers[1])
	}
}

func TestNewProducerValidation(t *testing.T) {
	logger := logrus.New()
	if _, err := NewProducer(ProducerConfig{Topic: "t"}, logger); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, logger); err == nil {
		t.Fatalf("expected error without topic")
	}

	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "bookshelf_events", Source: "bookshelf"}, logger)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()
	if p.Topic() != "bookshelf_events" {
		t.Fatalf("unexpected topic %q", p.Topic())
	}
}
