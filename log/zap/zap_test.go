package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/purestore"
)

func TestZapLoggerLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("d", nil)
	l.Info("i", purestore.Fields{"ns": "prefs"})
	l.Warn("w", purestore.Fields{"err": errors.New("boom"), "key": "k"})
	l.Error("e", purestore.Fields{})

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("entries = %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d level = %v", i, e.Level)
		}
		if e.ContextMap()["component"] != "purestore" {
			t.Fatalf("entry %d missing component: %v", i, e.ContextMap())
		}
	}
	w := entries[2].ContextMap()
	if w["err"] != "boom" || w["key"] != "k" {
		t.Fatalf("warn fields = %v", w)
	}
}
