package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface used throughout plotterd. It is a thin
// wrapper over zap's SugaredLogger so call sites can use printf-style
// verbs, while entries are routed through one or more Appenders.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Named(name string) Logger
	Sync() error
}

type impl struct {
	*zap.SugaredLogger
	appenders []Appender
}

// fanoutCore dispatches every zap entry to a fixed set of Appenders.
type fanoutCore struct {
	zapcore.LevelEnabler
	appenders []Appender
}

func (c *fanoutCore) With(fields []zapcore.Field) zapcore.Core {
	return c
}

func (c *fanoutCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *fanoutCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var firstErr error
	for _, a := range c.appenders {
		if err := a.Write(entry, fields); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *fanoutCore) Sync() error {
	var firstErr error
	for _, a := range c.appenders {
		if err := a.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewLogger builds a Logger named `name` writing to the given appenders.
// With no appenders, it defaults to a single stdout ConsoleAppender.
func NewLogger(name string, appenders ...Appender) Logger {
	if len(appenders) == 0 {
		appenders = []Appender{NewStdoutAppender()}
	}
	core := &fanoutCore{LevelEnabler: zapcore.DebugLevel, appenders: appenders}
	zl := zap.New(core, zap.AddCaller()).Named(name).Sugar()
	return &impl{SugaredLogger: zl, appenders: appenders}
}

func (l *impl) Named(name string) Logger {
	return &impl{SugaredLogger: l.SugaredLogger.Named(name), appenders: l.appenders}
}

var testLoggerMu sync.Mutex

// TestLogger returns a Logger that writes to the test's own output; callers
// pass anything satisfying the minimal Logf interface t.Testing implements.
func TestLogger(t interface{ Logf(string, ...interface{}) }) Logger {
	testLoggerMu.Lock()
	defer testLoggerMu.Unlock()
	return NewLogger("test", NewWriterAppender(&testWriter{t: t}))
}

type testWriter struct{ t interface{ Logf(string, ...interface{}) } }

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", string(p))
	return len(p), nil
}
