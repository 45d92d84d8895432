package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	t.Parallel()

	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Fatalf("expected logger to be enabled")
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("component", "store").Msg("archive written")

	out := buf.String()
	if !strings.Contains(out, "archive written") || !strings.Contains(out, "store") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
