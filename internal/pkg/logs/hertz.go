package logs

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// hertzTag prefixes every line the admin server's framework emits, so they
// can be told apart from the socket loop's own logging in a shared file.
const hertzTag = "[admin/hertz] "

// hlogAdapter satisfies hlog.FullLogger on top of a sessiond Logger. Hertz
// has seven levels and logrus five: Trace folds into Debug, Notice into Info.
type hlogAdapter struct {
	l Logger
}

var _ hlog.FullLogger = (*hlogAdapter)(nil)

// NewHlogLogger wraps l for hlog.SetLogger. The admin server installs it
// before spinning so hertz's startup and shutdown lines carry hertzTag and
// honor the configured level.
func NewHlogLogger(l Logger) hlog.FullLogger {
	return &hlogAdapter{l: l}
}

// --- plain ---

func (a *hlogAdapter) Trace(v ...interface{})  { a.l.Debug(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Debug(v ...interface{})  { a.l.Debug(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Info(v ...interface{})   { a.l.Info(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Notice(v ...interface{}) { a.l.Info(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Warn(v ...interface{})   { a.l.Warn(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Error(v ...interface{})  { a.l.Error(hertzTag+"%s", fmt.Sprint(v...)) }
func (a *hlogAdapter) Fatal(v ...interface{})  { a.l.Fatal(hertzTag+"%s", fmt.Sprint(v...)) }

// --- printf style ---

func (a *hlogAdapter) Tracef(format string, v ...interface{})  { a.l.Debug(hertzTag+format, v...) }
func (a *hlogAdapter) Debugf(format string, v ...interface{})  { a.l.Debug(hertzTag+format, v...) }
func (a *hlogAdapter) Infof(format string, v ...interface{})   { a.l.Info(hertzTag+format, v...) }
func (a *hlogAdapter) Noticef(format string, v ...interface{}) { a.l.Info(hertzTag+format, v...) }
func (a *hlogAdapter) Warnf(format string, v ...interface{})   { a.l.Warn(hertzTag+format, v...) }
func (a *hlogAdapter) Errorf(format string, v ...interface{})  { a.l.Error(hertzTag+format, v...) }
func (a *hlogAdapter) Fatalf(format string, v ...interface{})  { a.l.Fatal(hertzTag+format, v...) }

// --- context aware; the log id set per request travels with ctx ---

func (a *hlogAdapter) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxDebug(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxDebug(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxInfo(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxInfo(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxWarn(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxError(ctx, hertzTag+format, v...)
}

func (a *hlogAdapter) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	a.l.CtxFatal(ctx, hertzTag+format, v...)
}

// --- control ---

// SetLevel maps hertz levels onto the wrapped Logger. It changes the shared
// level, not just the framework's.
func (a *hlogAdapter) SetLevel(level hlog.Level) {
	switch level {
	case hlog.LevelTrace, hlog.LevelDebug:
		a.l.SetLevel(DebugLevel)
	case hlog.LevelInfo, hlog.LevelNotice:
		a.l.SetLevel(InfoLevel)
	case hlog.LevelWarn:
		a.l.SetLevel(WarnLevel)
	case hlog.LevelError:
		a.l.SetLevel(ErrorLevel)
	case hlog.LevelFatal:
		a.l.SetLevel(FatalLevel)
	}
}

// SetOutput is ignored; the output belongs to the wrapped Logger.
func (a *hlogAdapter) SetOutput(_ io.Writer) {}
