package logger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  = zap.NewNop()
	once sync.Once
	atom zap.AtomicLevel
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
)

// Init initializes the process-wide logger. Calls after the first are no-ops.
func Init(env string) {
	once.Do(func() {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		if env == "development" {
			config = zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		built, err := config.Build(zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
		log = built.With(zap.String("service", "gradvillage-api"))
		atom = config.Level
	})
}

// GetLogger returns the underlying zap logger
func GetLogger() *zap.Logger {
	return log
}

// Replace swaps the process logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := log
	log = l
	return func() { log = prev }
}

// SetLevel changes the minimum enabled level at runtime.
func SetLevel(level zapcore.Level) {
	if atom == (zap.AtomicLevel{}) {
		return
	}
	atom.SetLevel(level)
}

// Sync flushes buffered entries.
func Sync() {
	_ = log.Sync()
}

// WithContext returns a logger carrying the request and user ids found in ctx.
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return log
	}

	var fields []zap.Field
	// gin stores the id under a plain string key
	if reqID, ok := ctx.Value("request_id").(string); ok && reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	} else if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	if len(fields) > 0 {
		return log.With(fields...)
	}
	return log
}

// Info logs a message at InfoLevel
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}

// RequestEntry is one access-log line.
type RequestEntry struct {
	Method   string
	Route    string
	Status   int
	Latency  time.Duration
	ClientIP string
	Bytes    int
}

// LogRequest writes an access-log line; 5xx at error, 4xx at warn.
// Query strings are never logged since receipt lookups carry donor emails.
func LogRequest(ctx context.Context, e RequestEntry) {
	fields := []zap.Field{
		zap.String("method", e.Method),
		zap.String("route", e.Route),
		zap.Int("status", e.Status),
		zap.Duration("latency", e.Latency),
		zap.String("client_ip", e.ClientIP),
		zap.Int("bytes", e.Bytes),
	}
	l := WithContext(ctx)
	switch {
	case e.Status >= 500:
		l.Error("request", fields...)
	case e.Status >= 400:
		l.Warn("request", fields...)
	default:
		l.Info("request", fields...)
	}
}
