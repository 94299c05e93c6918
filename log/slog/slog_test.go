package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/purestore"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped", purestore.Fields{"x": 1})
	l.Info("namespace created", purestore.Fields{"ns": "prefs", "cache": true})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "namespace created" || rec["level"] != "INFO" {
		t.Fatalf("record = %v", rec)
	}
	grp, _ := rec["purestore"].(map[string]any)
	if grp["ns"] != "prefs" || grp["cache"] != true {
		t.Fatalf("group = %v", rec["purestore"])
	}
}
