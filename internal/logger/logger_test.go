package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(Config{Level: "info", Format: "json"}, &buf); err != nil {
		t.Fatal(err)
	}
	log.Info().Str("ticker", "BBCA.JK").Msg("scanned")
	log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"ticker":"BBCA.JK"`) {
		t.Errorf("expected structured field, got %s", out)
	}
	if !strings.Contains(out, `"service":"signalradar"`) {
		t.Errorf("expected service field, got %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
}

func TestInitWriter_BadLevel(t *testing.T) {
	if err := InitWriter(Config{Level: "loud", Format: "json"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid level")
	}
}
