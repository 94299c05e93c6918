// Package logrus adapts a *logrus.Entry to purestore.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/purestore"
)

var _ purestore.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l with component=purestore.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "purestore")}
}

func (l LogrusLogger) Debug(msg string, f purestore.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f purestore.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f purestore.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f purestore.Fields) { l.with(f).Error(msg) }

// with moves an "err" field to logrus' error key.
func (l LogrusLogger) with(f purestore.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			fields[logrus.ErrorKey] = err
			continue
		}
		fields[k] = v
	}
	return l.E.WithFields(fields)
}
