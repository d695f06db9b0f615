package sweep

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tgifai/sessiond/internal/pkg/logs"
)

// Parser accepts standard 5-field expressions and descriptors like "@every 5m".
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

const flushTimeout = 5 * time.Second

// FlushFunc asks the running daemon to sweep everything due.
type FlushFunc func(ctx context.Context) error

// Scheduler fires a flush request on a cron schedule. It never touches the
// session store directly; the flush goes through the daemon's socket so the
// accept loop stays the only owner of session state.
type Scheduler struct {
	cron  *cron.Cron
	spec  string
	flush FlushFunc

	runCtx context.Context
	cancel context.CancelFunc
}

func ValidateSchedule(spec string) error {
	if _, err := Parser.Parse(strings.TrimSpace(spec)); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return nil
}

func NewScheduler(spec string, flush FlushFunc) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}
	if flush == nil {
		return nil, fmt.Errorf("flush func cannot be nil")
	}

	return &Scheduler{
		cron:  cron.New(cron.WithParser(Parser), cron.WithLogger(cronLogger{})),
		spec:  spec,
		flush: flush,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.runCtx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.spec, func() { s.fire(s.runCtx) }); err != nil {
		return fmt.Errorf("register sweep job: %w", err)
	}
	s.cron.Start()
	logs.CtxInfo(ctx, "[sweep] scheduled flush %q, next flush at %s",
		s.spec, s.Next(time.Now()).Format(time.RFC3339))
	return nil
}

// Stop halts the schedule and waits for an in-flight flush, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logs.CtxWarn(ctx, "[sweep] stop timed out waiting for flush")
	}
}

// Next reports when the schedule fires next after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	sched, err := Parser.Parse(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(from)
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	if err := s.flush(ctx); err != nil {
		logs.CtxWarn(ctx, "[sweep] scheduled flush failed: %v", err)
		return
	}
	logs.CtxDebug(ctx, "[sweep] scheduled flush done")
}

// cronLogger forwards robfig/cron's own logging.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logs.Debug("[sweep] cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logs.Warn("[sweep] cron: %s: %v %v", msg, err, keysAndValues)
}
