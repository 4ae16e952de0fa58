package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(Config{Level: "debug", Encoding: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	ctx := ContextWithDocument(context.Background(), "Plan.oplx")
	WithDocument(ctx, log).Debug("loaded")
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["document"] != "Plan.oplx" {
		t.Errorf("document field = %v", entry["document"])
	}
	if entry["msg"] != "loaded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp key missing")
	}
}

func TestLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(Config{Level: "chatty", Encoding: "console"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unknown level should fall back to info:\n%s", out)
	}
}

func TestWithDocumentWithoutValue(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(Config{Level: "info"}, &buf)
	if got := WithDocument(context.Background(), log); got != log {
		t.Error("logger without document should be returned unchanged")
	}
	if _, ok := DocumentFromContext(ContextWithDocument(context.Background(), "")); ok {
		t.Error("empty document name must not be reported")
	}
}
