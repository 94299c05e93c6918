package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/purestore"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("ready", nil)
	boom := errors.New("boom")
	l.Warn("backend call failed", purestore.Fields{"ns": "prefs", "err": boom})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Level != logrus.DebugLevel || entries[0].Data["component"] != "purestore" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	last := hook.LastEntry()
	if last.Level != logrus.WarnLevel || last.Message != "backend call failed" {
		t.Fatalf("last entry = %+v", last)
	}
	if last.Data[logrus.ErrorKey] != boom || last.Data["ns"] != "prefs" {
		t.Fatalf("fields = %v", last.Data)
	}
}
