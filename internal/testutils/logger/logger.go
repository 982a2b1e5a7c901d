package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/alphabill-org/admission/logger"
)

/*
New returns logger for test t on debug level.
*/
func New(t testing.TB) *slog.Logger {
	return NewLvl(t, levelFromEnv(slog.LevelDebug))
}

/*
NewLvl returns logger for test t on level "level".
Log records are written through t.Log so they show up only when the test fails
or is run in verbose mode.
*/
func NewLvl(t testing.TB, level slog.Level) *slog.Logger {
	cfg := &logger.LogConfiguration{
		Level:      level.String(),
		Format:     "text",
		TimeFormat: "15:04:05.0000",
	}
	h, err := cfg.Handler(&testLogWriter{t: t})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return slog.New(h)
}

/*
LoggerBuilder returns logger factory func which ignores the configuration
and returns test logger.
*/
func LoggerBuilder(t testing.TB) func(*logger.LogConfiguration) (*slog.Logger, error) {
	return func(*logger.LogConfiguration) (*slog.Logger, error) { return New(t), nil }
}

// NOP returns logger which discards everything.
func NOP() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

func levelFromEnv(def slog.Level) slog.Level {
	if s := os.Getenv("ADM_TEST_LOG_LEVEL"); s != "" {
		if lvl, err := logger.ParseLevel(s); err == nil {
			return lvl
		}
	}
	return def
}

// testLogWriter writes log records through t.Log, trailing newline is
// stripped as t.Log adds one.
type testLogWriter struct {
	t  testing.TB
	mu sync.Mutex
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(bytes.Clone(p)), "\n"))
	return len(p), nil
}
