package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "prod"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewBuildsForEachEnv(t *testing.T) {
	for _, env := range []string{"dev", "prod", ""} {
		log, err := New("info", env)
		if err != nil {
			t.Fatalf("build logger for env %q: %v", env, err)
		}
		_ = log.Sync()
	}
}

func TestNewAppliesLevel(t *testing.T) {
	log, err := New("warn", "prod")
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error must be enabled at warn level")
	}
}
