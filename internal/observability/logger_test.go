package observability

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

// TestZapLogger_LogsFields verifies each request emits the structured fields.
func TestZapLogger_LogsFields(t *testing.T) {
	logger, logs := observed()
	entry := RequestLogEntry{
		RequestID: NewRequestID(),
		Operation: "search",
		Method:    "POST",
		Path:      "/users/_search",
		Dialect:   "v7",
		Duration:  15 * time.Millisecond,
		Status:    200,
	}
	if err := logger.LogRequest(context.Background(), entry); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	all := logs.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].Level != zapcore.DebugLevel {
		t.Errorf("expected debug level, got %s", all[0].Level)
	}
	fields := all[0].ContextMap()
	if fields["request_id"] != entry.RequestID || fields["path"] != "/users/_search" || fields["dialect"] != "v7" {
		t.Errorf("unexpected fields %v", fields)
	}
}

// TestZapLogger_FailuresWarn verifies failed requests log at warn with the error.
func TestZapLogger_FailuresWarn(t *testing.T) {
	logger, logs := observed()
	_ = logger.LogRequest(context.Background(), RequestLogEntry{
		RequestID: "r1", Operation: "create index", Status: 400, Error: "resource_already_exists_exception",
	})
	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warn entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["error"] != "resource_already_exists_exception" {
		t.Errorf("unexpected fields %v", entries[0].ContextMap())
	}
}

// TestZapLogger_RejectsInvalidEntry verifies required fields are enforced.
func TestZapLogger_RejectsInvalidEntry(t *testing.T) {
	logger, logs := observed()
	for _, e := range []RequestLogEntry{
		{Operation: "search"},
		{RequestID: "r1"},
		{RequestID: "r1", Operation: "search", Duration: -time.Second},
	} {
		if err := logger.LogRequest(context.Background(), e); err == nil {
			t.Errorf("expected error for %+v", e)
		}
	}
	if logs.Len() != 0 {
		t.Errorf("invalid entries must not be logged, got %d", logs.Len())
	}
}

// TestZapLogger_CancelledContext verifies a cancelled context is reported.
func TestZapLogger_CancelledContext(t *testing.T) {
	logger, _ := observed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := logger.LogRequest(ctx, RequestLogEntry{RequestID: "r", Operation: "o"}); err == nil {
		t.Error("expected context error")
	}
}

// TestZapLogger_Summary verifies aggregation and ordering of failures.
func TestZapLogger_Summary(t *testing.T) {
	logger, _ := observed()
	ctx := context.Background()
	for _, e := range []RequestLogEntry{
		{RequestID: "1", Operation: "search", Duration: time.Second},
		{RequestID: "2", Operation: "bulk", Error: "x"},
		{RequestID: "3", Operation: "search", Error: "y"},
		{RequestID: "4", Operation: "search", Error: "z"},
	} {
		if err := logger.LogRequest(ctx, e); err != nil {
			t.Fatalf("LogRequest: %v", err)
		}
	}

	s := logger.Summary()
	if s.Succeeded != 1 || s.Failed != 3 || s.TotalDurationMs != 1000 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(s.TopFailedOps) != 2 || s.TopFailedOps[0].Operation != "search" || s.TopFailedOps[0].Count != 2 {
		t.Errorf("unexpected top failures %+v", s.TopFailedOps)
	}
}

// TestNewLogger verifies level parsing.
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug enabled")
	}
	if _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}
