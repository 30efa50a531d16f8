// Package observability provides structured logging for esql.
//
// Every request sent to a cluster emits one entry: request_id, operation,
// method, path, dialect, duration, status, and error (if any).
package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is console or json.
	Format string `mapstructure:"format"`
	// Output is a list of zap sinks. Defaults to stderr so stdout stays
	// reserved for command output.
	Output []string `mapstructure:"output"`
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var z zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		z = zap.NewProductionConfig()
	} else {
		z = zap.NewDevelopmentConfig()
		z.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.WarnLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("observability: invalid log level %q: %w", cfg.Level, err)
		}
	}
	z.Level = zap.NewAtomicLevelAt(level)

	z.OutputPaths = cfg.Output
	if len(z.OutputPaths) == 0 {
		z.OutputPaths = []string{"stderr"}
	}
	z.ErrorOutputPaths = []string{"stderr"}

	logger, err := z.Build()
	if err != nil {
		return nil, fmt.Errorf("observability: failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewRequestID returns a fresh request id.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestLogEntry contains the fields logged for one cluster request.
type RequestLogEntry struct {
	// RequestID is sent to the cluster as X-Opaque-Id.
	RequestID string

	// Operation names the client call, e.g. "create index".
	Operation string

	Method string
	Path   string

	// Dialect is the wire dialect the client was built for.
	Dialect string

	// Duration must be non-negative.
	Duration time.Duration

	// Status is the HTTP status, 0 when no response arrived.
	Status int

	// Error is empty for successful requests.
	Error string
}

// Validate checks that all required fields are present.
func (e *RequestLogEntry) Validate() error {
	if e.RequestID == "" {
		return fmt.Errorf("observability: request_id is required")
	}
	if e.Operation == "" {
		return fmt.Errorf("observability: operation is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// RequestLogger records cluster requests.
type RequestLogger interface {
	// LogRequest logs one request. Returns an error if the entry is invalid.
	LogRequest(ctx context.Context, entry RequestLogEntry) error

	// Summary returns aggregated request statistics.
	Summary() *RequestSummary
}

// RequestSummary aggregates logged requests.
type RequestSummary struct {
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	TopFailedOps    []OperationStat `json:"top_failed_operations"`
	TotalDurationMs int64           `json:"total_duration_ms"`
}

// OperationStat counts failures of one operation.
type OperationStat struct {
	Operation string `json:"operation"`
	Count     int    `json:"count"`
}

// ZapLogger implements RequestLogger on a zap logger.
type ZapLogger struct {
	logger  *zap.Logger
	mu      sync.Mutex
	entries []RequestLogEntry
}

// NewZapLogger creates a request logger writing to logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// LogRequest logs a request at debug level, or warn when it failed.
func (l *ZapLogger) LogRequest(ctx context.Context, entry RequestLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("request_id", entry.RequestID),
		zap.String("operation", entry.Operation),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.String("dialect", entry.Dialect),
		zap.Duration("duration", entry.Duration),
		zap.Int("status", entry.Status),
	}
	if entry.Error != "" {
		l.logger.Warn("request failed", append(fields, zap.String("error", entry.Error))...)
	} else {
		l.logger.Debug("request", fields...)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return nil
}

// Summary returns aggregated request statistics.
func (l *ZapLogger) Summary() *RequestSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := &RequestSummary{TopFailedOps: []OperationStat{}}
	failures := make(map[string]int)
	for _, e := range l.entries {
		summary.TotalDurationMs += e.Duration.Milliseconds()
		if e.Error == "" {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		failures[e.Operation]++
	}

	for op, count := range failures {
		summary.TopFailedOps = append(summary.TopFailedOps, OperationStat{Operation: op, Count: count})
	}
	sort.Slice(summary.TopFailedOps, func(i, j int) bool {
		a, b := summary.TopFailedOps[i], summary.TopFailedOps[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Operation < b.Operation
	})
	if len(summary.TopFailedOps) > 5 {
		summary.TopFailedOps = summary.TopFailedOps[:5]
	}
	return summary
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogRequest does nothing and always succeeds.
func (l *NoopLogger) LogRequest(ctx context.Context, entry RequestLogEntry) error {
	return nil
}

// Summary returns an empty summary.
func (l *NoopLogger) Summary() *RequestSummary {
	return &RequestSummary{TopFailedOps: []OperationStat{}}
}
