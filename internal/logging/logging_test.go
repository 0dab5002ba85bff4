package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"discipline-bot/internal/logging"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"INFO":     zerolog.InfoLevel,
		"debug":    zerolog.DebugLevel,
		"WARNING":  zerolog.WarnLevel,
		"warn":     zerolog.WarnLevel,
		"CRITICAL": zerolog.FatalLevel,
		"":         zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "INFO", "json")

	ctx := logging.WithTraceID(context.Background(), "trace-1")
	ctx = logging.WithTgID(ctx, 42)
	logging.With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if line["trace_id"] != "trace-1" {
		t.Errorf("missing trace_id in %v", line)
	}
	if line["tg_id"] != float64(42) {
		t.Errorf("missing tg_id in %v", line)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWithWriter(&buf, "WARNING", "json")
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line should be filtered at WARNING, got %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	fallback := logging.Nop()
	if got := logging.FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger")
	}
	scoped := logging.Nop()
	ctx := logging.WithLogger(context.Background(), scoped)
	if got := logging.FromContext(ctx, fallback); got != scoped {
		t.Error("expected scoped logger")
	}
}
