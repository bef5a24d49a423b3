package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("sink down")
}

func TestFanoutSurvivesFailingSink(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(Fanout(failingWriter{}, &buf))

	logger.Info().Msg("still delivered")

	if !strings.Contains(buf.String(), "still delivered") {
		t.Fatalf("healthy sink should receive the record, got %q", buf.String())
	}
}

func TestNewLoggerLevelParsing(t *testing.T) {
	logger, closer, err := NewLogger(Config{Level: "warn"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer()

	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}
}

func TestSplitCaller(t *testing.T) {
	file, line := splitCaller(map[string]any{zerolog.CallerFieldName: "internal/reconcile/stock.go:42"})
	if file != "internal/reconcile/stock.go" || line != 42 {
		t.Fatalf("unexpected caller split: %q %d", file, line)
	}

	file, line = splitCaller(map[string]any{})
	if file != "" || line != 0 {
		t.Fatalf("missing caller should be empty, got %q %d", file, line)
	}
}
