package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug level should be enabled")
	}
}

func TestNewLoggerFallsBackOnInvalidLevel(t *testing.T) {
	logger, err := NewLogger("chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("invalid level should fall back to info")
	}
	if !logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info level should be enabled after fallback")
	}
}

func TestEventHookEmitsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	hook := EventHook(zap.New(core))

	hook(context.Background(), "session.login_succeeded", map[string]any{
		"user":  "admin@bagshop.test",
		"count": 3,
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Message != "session.login_succeeded" {
		t.Errorf("message = %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["user"] != "admin@bagshop.test" {
		t.Errorf("user field = %v", fields["user"])
	}
	if fields["count"] != int64(3) {
		t.Errorf("count field = %v", fields["count"])
	}
}

func TestEventHookToleratesNilLogger(t *testing.T) {
	hook := EventHook(nil)
	hook(context.Background(), "noop", nil)
}
