package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shaiso/eggo/internal/dispatch"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/etl"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeClock — время, которое сдвигается на каждом ожидании.
type fakeClock struct {
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *fakeClock) {
	t.Helper()
	cfg.Logger = discard
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)}
	s.now = clock.Now
	s.after = clock.After
	return s, clock
}

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	s, clock := newTestScheduler(t, Config{
		CronExpr: "*/15 * * * *",
		Timezone: "UTC",
		Pass: func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("task failed: %w", domain.ErrExternalCommandFailed)
			}
			return nil
		},
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 passes, got %d", calls)
	}

	want := []time.Duration{8 * time.Minute, 15 * time.Minute, 15 * time.Minute}
	if len(clock.waits) != len(want) {
		t.Fatalf("unexpected waits %v", clock.waits)
	}
	for i := range want {
		if clock.waits[i] != want[i] {
			t.Errorf("wait %d = %s, want %s", i, clock.waits[i], want[i])
		}
	}
}

func TestScheduler_StopsOnFatal(t *testing.T) {
	_, unknownPipeline := etl.Lookup("vcf2adm")

	tests := []struct {
		name string
		err  error
	}{
		{"unsupported format", fmt.Errorf("basic stage: %w", domain.ErrUnsupportedFormat)},
		{"unknown pipeline", unknownPipeline},
		{"no streaming jar", fmt.Errorf("dispatch /tmp/p: %w", dispatch.ErrNoStreamingJar)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			s, clock := newTestScheduler(t, Config{
				CronExpr:  "@every 1m",
				Immediate: true,
				Pass: func(context.Context) error {
					calls++
					return tt.err
				},
			})

			err := s.Run(context.Background())
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if calls != 1 || len(clock.waits) != 0 {
				t.Errorf("fatal error must not be retried, got %d passes, waits %v", calls, clock.waits)
			}
		})
	}
}

func TestScheduler_MaxPasses(t *testing.T) {
	boom := errors.New("boom")
	s, clock := newTestScheduler(t, Config{
		CronExpr:  "@every 1m",
		Immediate: true,
		MaxPasses: 2,
		Pass:      func(context.Context) error { return boom },
	})

	err := s.Run(context.Background())
	if !errors.Is(err, ErrMaxPasses) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrMaxPasses wrapping the last error, got %v", err)
	}
	// первая попытка без ожидания
	if len(clock.waits) != 1 {
		t.Errorf("expected one wait, got %v", clock.waits)
	}
}

func TestScheduler_Canceled(t *testing.T) {
	s, err := New(Config{CronExpr: "@every 1h", Logger: discard, Pass: func(context.Context) error { return nil }})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{expr: "*/15 * * * *"},
		{expr: "@every 10m"},
		{expr: "@daily"},
		{expr: "* * *", wantErr: true},
		{expr: "not cron", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpr(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCronExpr(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNew_InvalidExpr(t *testing.T) {
	if _, err := New(Config{CronExpr: "bad"}); err == nil {
		t.Error("expected error for invalid expression")
	}
}
