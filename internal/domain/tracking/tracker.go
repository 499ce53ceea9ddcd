package tracking

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jsiebert/worklog/internal/domain/interval"
)

// Sample is one foreground-activity observation from the OS-specific
// source.
type Sample struct {
	AppName     string
	WindowTitle string
	Time        time.Time
	// Idle reports that no input activity preceded this sample beyond
	// the configured threshold.
	Idle bool
}

// Source produces foreground-activity samples. Implementations wrap the
// platform window-polling APIs and live outside this package.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// Committer commits a completed interval. Satisfied by
// *interval.Service.
type Committer interface {
	Capture(ctx context.Context, req interval.CaptureRequest) (*interval.Interval, error)
}

// MinDuration drops observations shorter than one second; they carry no
// usable signal at second granularity.
const MinDuration = time.Second

// IgnoreRules filters samples that should not be tracked, such as system
// surfaces and lock screens.
type IgnoreRules struct {
	Apps   []string
	Titles []string
}

func (r IgnoreRules) ignores(s Sample) bool {
	for _, app := range r.Apps {
		if strings.EqualFold(s.AppName, app) {
			return true
		}
	}
	for _, title := range r.Titles {
		if title != "" && strings.Contains(s.WindowTitle, title) {
			return true
		}
	}
	return false
}

// Tracker converts the observation stream into completed intervals. It
// is an explicit two-state machine: either no activity is being tracked,
// or one activity with its start time. All time math happens in Observe;
// the emitted request goes straight to the overlap resolver.
//
// Loop feeds Observe from its own goroutine while server handlers read
// Current concurrently, so the state is mutex-guarded.
type Tracker struct {
	rules IgnoreRules

	mu      sync.Mutex
	current *Sample
	since   time.Time
}

// NewTracker creates a tracker in the NoActivity state.
func NewTracker(rules IgnoreRules) *Tracker {
	return &Tracker{rules: rules}
}

// Observe feeds one sample through the state machine. When the foreground
// activity changed or idling began, the completed interval for the
// previous activity is returned; otherwise nil.
func (t *Tracker) Observe(s Sample) *interval.CaptureRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rules.ignores(s) {
		return t.flushAt(s.Time, t.current != nil && t.current.Idle)
	}

	if s.Idle {
		// The interval up to this sample was active; idle time is
		// recorded from here by the next transition. An idle interval is
		// never partially idle, so the active part is cut off first.
		if t.current != nil && !t.current.Idle {
			done := t.flushAt(s.Time, false)
			t.current = &s
			t.since = s.Time
			return done
		}
	}

	if t.current == nil {
		t.current = &s
		t.since = s.Time
		return nil
	}

	if t.current.AppName == s.AppName && t.current.WindowTitle == s.WindowTitle && t.current.Idle == s.Idle {
		// Same activity continues; nothing to emit.
		return nil
	}

	done := t.flushAt(s.Time, t.current.Idle)
	t.current = &s
	t.since = s.Time
	return done
}

// Flush completes the in-progress interval, if any, ending now. Called on
// shutdown so the tail of the session is not lost.
func (t *Tracker) Flush(now time.Time) *interval.CaptureRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushAt(now, t.current != nil && t.current.Idle)
}

// Current returns the activity being tracked, or nil in the NoActivity
// state.
func (t *Tracker) Current() *Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	s := *t.current
	return &s
}

// flushAt completes the in-progress interval. Caller holds mu.
func (t *Tracker) flushAt(end time.Time, idle bool) *interval.CaptureRequest {
	if t.current == nil {
		return nil
	}
	cur := *t.current
	start := t.since
	t.current = nil
	t.since = time.Time{}

	if end.Sub(start) < MinDuration {
		return nil
	}
	return &interval.CaptureRequest{
		Start:       start,
		End:         end,
		AppName:     cur.AppName,
		WindowTitle: cur.WindowTitle,
		IsIdle:      idle,
	}
}

// Loop polls a Source and commits completed intervals. A failed commit
// drops that one observation with a warning; tracking continues.
type Loop struct {
	source    Source
	committer Committer
	tracker   *Tracker
	interval  time.Duration
	logger    *slog.Logger
}

// NewLoop creates a tracking loop.
func NewLoop(source Source, committer Committer, tracker *Tracker, pollInterval time.Duration, logger *slog.Logger) *Loop {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Loop{
		source:    source,
		committer: committer,
		tracker:   tracker,
		interval:  pollInterval,
		logger:    logger,
	}
}

// Run blocks until ctx is canceled, then flushes the pending interval.
// Run must not be called from a UI-responsiveness-sensitive goroutine:
// each commit blocks on a storage transaction.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.commit(context.Background(), l.tracker.Flush(time.Now()))
			return ctx.Err()
		case <-ticker.C:
			sample, err := l.source.Sample(ctx)
			if err != nil {
				l.logger.Warn("observation source failed", "error", err)
				continue
			}
			l.commit(ctx, l.tracker.Observe(sample))
		}
	}
}

func (l *Loop) commit(ctx context.Context, req *interval.CaptureRequest) {
	if req == nil {
		return
	}
	if _, err := l.committer.Capture(ctx, *req); err != nil {
		l.logger.Warn("dropping observation, commit failed",
			"app", req.AppName,
			"start", req.Start,
			"end", req.End,
			"error", err)
	}
}
