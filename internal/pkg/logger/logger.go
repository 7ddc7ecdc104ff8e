package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

var (
	loggerInstance *zapLogger
	once           sync.Once
)

// New creates the process-wide logger. mode "prod" selects zap's production
// config, anything else the development one.
func New(mode string) Logger {
	once.Do(func() {
		var cfg zap.Config
		switch strings.ToLower(mode) {
		case "prod", "production":
			cfg = zap.NewProductionConfig()
		default:
			cfg = zap.NewDevelopmentConfig()
		}
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		z, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			z = zap.NewExample()
		}
		loggerInstance = &zapLogger{sugar: z.Sugar()}
	})
	return loggerInstance
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

// Sync flushes buffered entries of the process-wide logger.
func Sync() {
	if loggerInstance != nil {
		_ = loggerInstance.sugar.Sync()
	}
}

func (l *zapLogger) Error(msg string, err error) {
	l.sugar.Errorw(msg, "error", err)
}

func (l *zapLogger) Warn(msg string) {
	l.sugar.Warn(msg)
}

func (l *zapLogger) Info(msg string) {
	l.sugar.Info(msg)
}

func (l *zapLogger) Debug(msg string) {
	l.sugar.Debug(msg)
}
