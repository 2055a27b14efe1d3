package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONCarriesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "intake-api", "warn", "json")

	logger.Info("ignored")
	logger.Warn("catalog_cache_error", "key", "catalog:brands:Tank")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above warn level, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "intake-api" || entry["msg"] != "catalog_cache_error" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "intakectl", "debug", "TEXT").Debug("slots_parsed", "valid", 3)
	if !strings.Contains(buf.String(), "msg=slots_parsed") || !strings.Contains(buf.String(), "service=intakectl") {
		t.Fatalf("unexpected text output: %s", buf.String())
	}
}
