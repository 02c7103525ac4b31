// Package logrus adapts a *logrus.Entry to layercache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/layercache"
)

var _ layercache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=layercache.
func New(l *logrus.Logger) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusLogger{E: l.WithField("component", "layercache")}
}

func (l LogrusLogger) Debug(msg string, f layercache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f layercache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f layercache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f layercache.Fields) { l.with(f).Error(msg) }

// with routes an "err" field through WithError so hooks and formatters see it.
func (l LogrusLogger) with(f layercache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			if err, ok := v.(error); ok {
				fields[logrus.ErrorKey] = err
				continue
			}
		}
		fields[k] = v
	}
	return l.E.WithFields(fields)
}
