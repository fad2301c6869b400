package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	if lvl := newLogger(&buf, "dev").GetLevel(); lvl != zerolog.DebugLevel {
		t.Fatalf("ожидали debug в dev, получили %s", lvl)
	}
	if lvl := newLogger(&buf, "prod").GetLevel(); lvl != zerolog.InfoLevel {
		t.Fatalf("ожидали info вне dev, получили %s", lvl)
	}
}
