package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewJSONIncludesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Service: "gotransact", Output: &buf})

	log.Info().Str("transaction_id", "txn_1").Msg("accepted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}

	if entry["service"] != "gotransact" || entry["message"] != "accepted" || entry["transaction_id"] != "txn_1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected timestamp in %v", entry)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "console", Output: &buf})

	log.Debug().Msg("readable")

	out := buf.String()
	if !strings.Contains(out, "readable") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}
