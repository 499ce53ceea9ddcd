package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func sample(app, title string, sec int, idle bool) Sample {
	return Sample{AppName: app, WindowTitle: title, Time: at(sec), Idle: idle}
}

func TestObserve_FirstSampleEmitsNothing(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	require.Nil(t, tr.Observe(sample("editor", "main.go", 0, false)))
	require.NotNil(t, tr.Current())
	require.Equal(t, "editor", tr.Current().AppName)
}

func TestObserve_SameActivityContinues(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	tr.Observe(sample("editor", "main.go", 0, false))
	require.Nil(t, tr.Observe(sample("editor", "main.go", 2, false)))
	require.Nil(t, tr.Observe(sample("editor", "main.go", 4, false)))
}

func TestObserve_ActivityChangeEmitsCompleted(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	tr.Observe(sample("editor", "main.go", 0, false))
	req := tr.Observe(sample("browser", "docs", 10, false))
	require.NotNil(t, req)
	require.Equal(t, "editor", req.AppName)
	require.Equal(t, "main.go", req.WindowTitle)
	require.Equal(t, at(0), req.Start)
	require.Equal(t, at(10), req.End)
	require.False(t, req.IsIdle)

	// The new activity is now being tracked from the cut point.
	require.Equal(t, "browser", tr.Current().AppName)
}

func TestObserve_TitleChangeIsNewActivity(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	tr.Observe(sample("editor", "main.go", 0, false))
	req := tr.Observe(sample("editor", "other.go", 5, false))
	require.NotNil(t, req)
	require.Equal(t, "main.go", req.WindowTitle)
}

func TestObserve_IdleTransitionCutsActivePart(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	tr.Observe(sample("editor", "main.go", 0, false))
	req := tr.Observe(sample("editor", "main.go", 60, true))
	require.NotNil(t, req)
	require.False(t, req.IsIdle)
	require.Equal(t, at(0), req.Start)
	require.Equal(t, at(60), req.End)

	// Idle continues silently, then activity resumes and the idle span
	// is emitted as idle.
	require.Nil(t, tr.Observe(sample("editor", "main.go", 120, true)))
	req = tr.Observe(sample("editor", "main.go", 180, false))
	require.NotNil(t, req)
	require.True(t, req.IsIdle)
	require.Equal(t, at(60), req.Start)
	require.Equal(t, at(180), req.End)
}

func TestObserve_IgnoredAppFlushes(t *testing.T) {
	tr := NewTracker(IgnoreRules{Apps: []string{"loginwindow"}})

	tr.Observe(sample("editor", "main.go", 0, false))
	req := tr.Observe(sample("LoginWindow", "", 30, false))
	require.NotNil(t, req)
	require.Equal(t, "editor", req.AppName)
	require.Equal(t, at(30), req.End)

	// Ignored samples are never tracked themselves.
	require.Nil(t, tr.Current())
	require.Nil(t, tr.Observe(sample("loginwindow", "", 32, false)))
}

func TestObserve_IgnoredTitleSubstring(t *testing.T) {
	tr := NewTracker(IgnoreRules{Titles: []string{"Private"}})

	require.Nil(t, tr.Observe(sample("browser", "Private Browsing", 0, false)))
	require.Nil(t, tr.Current())
}

func TestObserve_SubSecondObservationDropped(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	tr.Observe(Sample{AppName: "editor", Time: at(0)})
	req := tr.Observe(Sample{AppName: "browser", Time: at(0).Add(500 * time.Millisecond)})
	require.Nil(t, req)
	require.Equal(t, "browser", tr.Current().AppName)
}

func TestFlush(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	require.Nil(t, tr.Flush(at(0)))

	tr.Observe(sample("editor", "main.go", 0, false))
	req := tr.Flush(at(45))
	require.NotNil(t, req)
	require.Equal(t, at(0), req.Start)
	require.Equal(t, at(45), req.End)
	require.Nil(t, tr.Current())

	// Flushing twice is harmless.
	require.Nil(t, tr.Flush(at(50)))
}

// TestConcurrentObserveAndCurrent exercises the tracker the way serve
// uses it: the polling loop feeding Observe while MCP request goroutines
// read Current. Meaningful under the race detector.
func TestConcurrentObserveAndCurrent(t *testing.T) {
	tr := NewTracker(IgnoreRules{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			app := "editor"
			if i%2 == 0 {
				app = "browser"
			}
			tr.Observe(sample(app, "main.go", i*2, i%5 == 0))
		}
		tr.Flush(at(3000))
	}()

	for i := 0; i < 1000; i++ {
		if cur := tr.Current(); cur != nil {
			_ = cur.AppName
		}
	}
	<-done
	require.Nil(t, tr.Current())
}

func TestCurrentReturnsCopy(t *testing.T) {
	tr := NewTracker(IgnoreRules{})
	tr.Observe(sample("editor", "main.go", 0, false))

	cur := tr.Current()
	cur.AppName = "mutated"
	require.Equal(t, "editor", tr.Current().AppName)
}
