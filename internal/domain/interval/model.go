package interval

import "time"

// Interval is a stored [Start, End) span of time attributed to one
// foreground activity. Half-open semantics: an interval ending at t and
// one starting at t are adjacent, not overlapping.
type Interval struct {
	ID          string    `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AppName     string    `json:"app_name"`
	WindowTitle string    `json:"window_title"`
	IsIdle      bool      `json:"is_idle"`
	ProjectID   *string   `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Duration is always derived from the timestamp pair. It is never stored
// independently, so it cannot drift from Start/End.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the interval shares any point in time with
// [start, end). Adjacency at the boundary does not count.
func (iv Interval) Overlaps(start, end time.Time) bool {
	return iv.Start.Before(end) && iv.End.After(start)
}

// containedIn reports whether [start, end) fully covers the interval.
func (iv Interval) containedIn(start, end time.Time) bool {
	return !iv.Start.Before(start) && !iv.End.After(end)
}

// SameActivity reports whether two intervals describe the same activity,
// ignoring their time bounds. Used by repair compaction.
func (iv Interval) SameActivity(other Interval) bool {
	if iv.AppName != other.AppName || iv.WindowTitle != other.WindowTitle || iv.IsIdle != other.IsIdle {
		return false
	}
	if (iv.ProjectID == nil) != (other.ProjectID == nil) {
		return false
	}
	return iv.ProjectID == nil || *iv.ProjectID == *other.ProjectID
}
