package sweep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tgifai/sessiond/internal/pkg/logs"
)

func TestValidateSchedule(t *testing.T) {
	for _, spec := range []string{"@every 5m", "*/10 * * * *", "@hourly", " 0 3 * * * "} {
		if err := ValidateSchedule(spec); err != nil {
			t.Errorf("ValidateSchedule(%q): %v", spec, err)
		}
	}
	for _, spec := range []string{"", "bad", "* * *", "@every nope"} {
		if err := ValidateSchedule(spec); err == nil {
			t.Errorf("ValidateSchedule(%q): expected error", spec)
		}
	}
}

func TestNewScheduler_RequiresFlush(t *testing.T) {
	if _, err := NewScheduler("@every 1m", nil); err == nil {
		t.Fatal("expected error for nil flush")
	}
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler("0 9 * * *", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	from := time.Date(2026, 1, 15, 8, 0, 0, 0, time.Local)
	want := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	if got := s.Next(from); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestScheduler_Fire(t *testing.T) {
	var calls atomic.Int32
	s, err := NewScheduler("@every 1h", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("flush ctx should carry a deadline")
		}
		calls.Add(1)
		return errors.New("daemon unreachable")
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	// A failed flush is logged, not propagated.
	s.fire(context.Background())
	if calls.Load() != 1 {
		t.Fatalf("flush calls = %d, want 1", calls.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.fire(ctx)
	if calls.Load() != 1 {
		t.Fatalf("flush should be skipped on canceled ctx, calls = %d", calls.Load())
	}
}

func TestScheduler_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.log")
	prev := logs.DefaultLogger()
	defer logs.SetLogger(prev)
	if err := logs.Init(logs.Options{Level: "info", Output: "file", File: path}); err != nil {
		t.Fatalf("logs.Init: %v", err)
	}

	s, err := NewScheduler("@every 1h", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "next flush at ") {
		t.Errorf("start log should report the next flush: %q", raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	if ctx.Err() != nil {
		t.Fatal("Stop should return before the deadline")
	}
}
