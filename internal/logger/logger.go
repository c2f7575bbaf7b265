package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used across the extractor.
// Every entry carries a short event tag alongside the human message so log
// pipelines can filter without parsing message text.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

// NopLogger discards all log output. Constructors fall back to it when they
// receive a nil logger.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}

type zapLogger struct {
	z *zap.Logger
}

// New builds a zap-backed Logger writing JSON lines to stderr and, when dir is
// non-empty, to a timestamped file under dir.
func New(level string, dir string) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	if dir = strings.TrimSpace(dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := fmt.Sprintf("extractor-%s.log", time.Now().Format("02_01_2006-15_04_05"))
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(dir, name))
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return lvl, nil
}

func (l *zapLogger) DebugObj(msg, event string, fields map[string]any) {
	l.z.Debug(msg, zapFields(event, fields)...)
}

func (l *zapLogger) InfoObj(msg, event string, fields map[string]any) {
	l.z.Info(msg, zapFields(event, fields)...)
}

func (l *zapLogger) WarnObj(msg, event string, fields map[string]any) {
	l.z.Warn(msg, zapFields(event, fields)...)
}

func (l *zapLogger) ErrorObj(msg, event string, fields map[string]any) {
	l.z.Error(msg, zapFields(event, fields)...)
}

func zapFields(event string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("event", event))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Ensure ensures a usable logger, substituting NopLogger for nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return NopLogger{}
	}
	return log
}
