package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerWithServiceStampsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithService("bookshelf")
	logger.SetOutput(&buf)

	logger.WithField("op", "test").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["service"] != "bookshelf" {
		t.Fatalf("expected service field, got %#v", entry["service"])
	}
	if entry["op"] != "test" {
		t.Fatalf("expected op field, got %#v", entry["op"])
	}
}
