package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "debug", "json"), "quiz_service")

	log.Info().Str("session_id", "s1").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"service":    ServiceName,
		"component":  "quiz_service",
		"session_id": "s1",
		"message":    "hello",
	} {
		if line[key] != want {
			t.Errorf("%s = %v, want %q", key, line[key], want)
		}
	}
}

func TestLevelParsing(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	for _, tt := range tests {
		New(&bytes.Buffer{}, tt.level, "json")
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("level %q: global = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestPrettyIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "pretty")
	log.Info().Msg("console")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("pretty output looks like JSON: %q", buf.String())
	}
}
