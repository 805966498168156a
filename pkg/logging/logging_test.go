package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "WARN", false)
	log.Info().Msg("hidden")
	log.Warn().Str("symbol", "ETHUSDT").Msg("visible")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["symbol"] != "ETHUSDT" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Errorf("missing timestamp: %v", entry)
	}
}

func TestNewWithWriterInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "loud", false)
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be disabled by default: %q", buf.String())
	}
	log.Info().Msg("visible")
	if buf.Len() == 0 {
		t.Error("info should be enabled by default")
	}
}
