package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	// LevelNone is used to disable logging
	LevelNone = "none"
)

/*
LogConfiguration describes how to build the logger. Zero value is usable, it
creates text logger at info level writing to stderr.
*/
type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
	TimeFormat string `yaml:"timeFormat"`
	// when true source code location is added to the log records
	ShowSource bool `yaml:"showSource"`

	writer io.Writer
}

/*
New returns logger for the configuration. Logger is wrapped into handler which
adds trace and span id to the log record when context passed to the logging
call contains a span.
*/
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &LogConfiguration{}
	}
	if err := cfg.initWriter(); err != nil {
		return nil, fmt.Errorf("initializing log writer: %w", err)
	}
	h, err := cfg.Handler(cfg.writer)
	if err != nil {
		return nil, fmt.Errorf("creating logger handler: %w", err)
	}
	return slog.New(h), nil
}

/*
Handler returns log handler writing into "out" configured according to
the configuration.
*/
func (cfg *LogConfiguration) Handler(out io.Writer) (slog.Handler, error) {
	if strings.EqualFold(cfg.Level, LevelNone) {
		return discardHandler{}, nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opt := &slog.HandlerOptions{
		AddSource: cfg.ShowSource,
		Level:     level,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opt.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatDataAttrAsJSON, formatLevelAttr)
		h = slog.NewTextHandler(out, opt)
	case "json":
		opt.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatLevelAttr)
		h = slog.NewJSONHandler(out, opt)
	case "ecs":
		opt.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatLevelAttr, formatAttrECS)
		h = slog.NewJSONHandler(out, opt)
	case "console":
		opt.AddSource = false
		opt.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatAttrConsole)
		h = slog.NewTextHandler(out, opt)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return spanContextHandler{h}, nil
}

func (cfg *LogConfiguration) initWriter() error {
	if cfg.writer != nil {
		return nil
	}
	switch strings.ToLower(cfg.OutputPath) {
	case "", "stderr":
		cfg.writer = os.Stderr
	case "stdout":
		cfg.writer = os.Stdout
	case "discard":
		cfg.writer = io.Discard
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0700); err != nil {
			return fmt.Errorf("creating directory for log file: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // -rw-------
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		cfg.writer = f
	}
	return nil
}

/*
ParseLevel accepts slog level names (with optional offset, ie "info+1") and
"trace". Empty string means info level.
*/
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("parsing log level: %w", err)
	}
	return l, nil
}

func formatLevelAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

/*
spanContextHandler adds OTEL trace and span ID to the records logged with
context which carries valid span.
*/
type spanContextHandler struct {
	slog.Handler
}

func (h spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(slog.String(traceID, sc.TraceID().String()), slog.String(spanID, sc.SpanID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h spanContextHandler) WithGroup(name string) slog.Handler {
	return spanContextHandler{h.Handler.WithGroup(name)}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
