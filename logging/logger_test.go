package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level      string
		production bool
		wantErr    bool
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"info", false, false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", true, false, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn", true, false, zapcore.WarnLevel, zapcore.InfoLevel},
		{"loud", false, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level, tt.production)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !l.Core().Enabled(tt.enabled) {
				t.Errorf("level %s should be enabled", tt.enabled)
			}
			if l.Core().Enabled(tt.disabled) {
				t.Errorf("level %s should be disabled", tt.disabled)
			}
		})
	}
}

func TestInstall_ReplacesAndRestoresGlobal(t *testing.T) {
	orig := zap.L()

	l, restore, err := Install("info", false)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if zap.L() != l {
		t.Error("Install() did not replace the global logger")
	}

	restore()
	if zap.L() != orig {
		t.Error("restore did not reinstate the previous global logger")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	FromContext(context.Background()).Info("global")

	scoped := zap.L().With(zap.String("request_id", "req-1"))
	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("scoped")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["request_id"]; ok {
		t.Error("global logger should not carry request_id")
	}
	if got := entries[1].ContextMap()["request_id"]; got != "req-1" {
		t.Errorf("request_id = %v, want req-1", got)
	}
}
