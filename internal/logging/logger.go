// Package logging provides config-driven categorized logging for kwangun.
// Every category shares one zap core; categories can be switched off
// individually, and nothing is written unless debug_mode is on or the CLI
// installs a base logger.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, config loading
	CategoryPredicate  Category = "predicate"  // Category expression parsing/evaluation
	CategoryRules      Category = "rules"      // Rule table loading and resolution
	CategoryTranscribe Category = "transcribe" // Transcription derivation
	CategorySiHu       Category = "sihu"       // Four-medial classification
	CategoryStore      Category = "store"      // Reading store operations
	CategoryKernel     Category = "kernel"     // Mangle engine operations
	CategoryCLI        Category = "cli"        // Command dispatch
)

// Config mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type Config struct {
	Level      string
	Format     string // json, text
	DebugMode  bool
	Categories map[string]bool
}

// Logger is a category-scoped wrapper around a zap logger.
type Logger struct {
	category Category
	zl       *zap.Logger
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	cfg     Config
	loggers = make(map[Category]*Logger)
)

// Initialize installs the base logger and the category configuration. A nil
// base builds one from cfg (console or JSON encoder on stderr). When
// cfg.DebugMode is false and base is nil, logging stays a no-op.
func Initialize(c Config, zl *zap.Logger) error {
	if zl == nil {
		if !c.DebugMode {
			zl = zap.NewNop()
		} else {
			built, err := Build(c)
			if err != nil {
				return err
			}
			zl = built
		}
	}

	mu.Lock()
	defer mu.Unlock()
	base = zl
	cfg = c
	loggers = make(map[Category]*Logger)
	return nil
}

// Build creates a zap logger for the given level and format.
func Build(c Config) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(c.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zl, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zl, nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// IsCategoryEnabled reports whether a category writes anything. Categories
// not listed in the config are enabled.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	zl := zap.NewNop()
	if categoryEnabledLocked(category) {
		zl = base.Named(string(category))
	}
	l := &Logger{category: category, zl: zl, sugar: zl.Sugar()}
	loggers[category] = l
	return l
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.zl.With(fields...)
	return &Logger{category: l.category, zl: zl, sugar: zl.Sugar()}
}

// Sync flushes the base logger.
func Sync() {
	mu.RLock()
	zl := base
	mu.RUnlock()
	_ = zl.Sync()
}

// =============================================================================
// CATEGORY SHORTCUTS
// =============================================================================

func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

func PredicateDebug(format string, args ...interface{}) {
	Get(CategoryPredicate).Debug(format, args...)
}

func Rules(format string, args ...interface{}) {
	Get(CategoryRules).Info(format, args...)
}

func RulesDebug(format string, args ...interface{}) {
	Get(CategoryRules).Debug(format, args...)
}

func TranscribeDebug(format string, args ...interface{}) {
	Get(CategoryTranscribe).Debug(format, args...)
}

func SiHuDebug(format string, args ...interface{}) {
	Get(CategorySiHu).Debug(format, args...)
}

func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

func Kernel(format string, args ...interface{}) {
	Get(CategoryKernel).Info(format, args...)
}

func KernelDebug(format string, args ...interface{}) {
	Get(CategoryKernel).Debug(format, args...)
}
