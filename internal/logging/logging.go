// Package logging provides config-driven categorized logging for
// parseforge, gated by Config.Logging.DebugMode. Adapted from the
// teacher's per-category file logger (internal/logging/logger.go), but
// built on go.uber.org/zap's structured core instead of a hand-rolled
// log.Logger wrapper.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theRebelliousNerd/parseforge/internal/config"
)

// Category names a logging subsystem, mirroring the teacher's Category
// constants but scoped to parseforge's own phases.
type Category string

const (
	CategoryBoot        Category = "boot"
	CategorySchemaPhase Category = "schema_phase"
	CategoryCodePhase   Category = "code_phase"
	CategoryExecutor    Category = "executor"
	CategoryBatch       Category = "batch"
	CategoryCluster     Category = "cluster"
	CategoryFetch       Category = "fetch"
	CategoryModel       Category = "model"
	CategoryStore       Category = "store"
)

// Logger wraps a zap.SugaredLogger scoped to one Category, silenced
// entirely when the category (or DebugMode) is disabled.
type Logger struct {
	sugar   *zap.SugaredLogger
	enabled bool
}

// Factory builds per-category Loggers from one shared zap core, per
// Config.Logging — constructed explicitly, never a package-level global.
type Factory struct {
	base *zap.Logger
	cfg  config.LoggingConfig
}

// NewFactory builds a Factory. When cfg.DebugMode is false the returned
// Factory produces no-op loggers everywhere (production default).
func NewFactory(cfg config.LoggingConfig) (*Factory, error) {
	if !cfg.DebugMode {
		return &Factory{base: zap.NewNop(), cfg: cfg}, nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)
	return &Factory{base: zap.New(core), cfg: cfg}, nil
}

// Get returns the Logger for a Category.
func (f *Factory) Get(cat Category) *Logger {
	enabled := f.cfg.IsCategoryEnabled(string(cat))
	if !enabled {
		return &Logger{sugar: zap.NewNop().Sugar(), enabled: false}
	}
	return &Logger{sugar: f.base.Sugar().With("category", string(cat)), enabled: true}
}

// Sync flushes any buffered log entries.
func (f *Factory) Sync() error { return f.base.Sync() }

func (l *Logger) Debugf(template string, args ...any) {
	if l.enabled {
		l.sugar.Debugf(template, args...)
	}
}

func (l *Logger) Infof(template string, args ...any) {
	if l.enabled {
		l.sugar.Infof(template, args...)
	}
}

func (l *Logger) Warnf(template string, args ...any) {
	if l.enabled {
		l.sugar.Warnf(template, args...)
	}
}

func (l *Logger) Errorf(template string, args ...any) {
	if l.enabled {
		l.sugar.Errorf(template, args...)
	}
}

// With returns a child Logger with structured key/value fields attached.
func (l *Logger) With(kv ...any) *Logger {
	if !l.enabled {
		return l
	}
	return &Logger{sugar: l.sugar.With(kv...), enabled: true}
}
