package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
)

// GroupBy selects the aggregation key.
type GroupBy string

const (
	GroupByProject GroupBy = "project"
	GroupByApp     GroupBy = "app"
	GroupByFile    GroupBy = "file"
)

// UnassignedKey labels time not attributed to any project.
const UnassignedKey = "(unassigned)"

// Bucket holds the aggregated figures for one group key.
type Bucket struct {
	Seconds int64   `json:"seconds"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary is the result of one aggregation.
type Summary struct {
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	GroupBy     GroupBy           `json:"group_by"`
	ActiveTotal int64             `json:"active_seconds"`
	IdleTotal   int64             `json:"idle_seconds"`
	Groups      map[string]Bucket `json:"groups"`
}

// DayTotal carries one day's active time for range reports.
type DayTotal struct {
	Day     time.Time `json:"day"`
	Seconds int64     `json:"seconds"`
}

// IntervalLister is the only read surface aggregation needs. Because the
// resolver and repair keep stored intervals disjoint, plain summation is
// exact: no overlap can double-count.
type IntervalLister interface {
	List(ctx context.Context, opts interval.ListOptions) ([]interval.Interval, error)
}

// ProjectLister resolves project IDs to display names.
type ProjectLister interface {
	List(ctx context.Context) ([]project.Project, error)
}

// Aggregator computes per-project, per-app and per-file sums over a time
// range.
type Aggregator struct {
	intervals IntervalLister
	projects  ProjectLister
	logger    *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(intervals IntervalLister, projects ProjectLister, logger *slog.Logger) *Aggregator {
	return &Aggregator{intervals: intervals, projects: projects, logger: logger}
}

// Aggregate sums derived durations of non-idle intervals in [start, end),
// grouped by the requested key, with each bucket's share of the active
// total. Intervals straddling the range boundary contribute only their
// clipped portion.
func (a *Aggregator) Aggregate(ctx context.Context, start, end time.Time, groupBy GroupBy) (*Summary, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range: start %s is not before end %s", start, end)
	}
	switch groupBy {
	case GroupByProject, GroupByApp, GroupByFile:
	default:
		return nil, fmt.Errorf("unknown group key %q", groupBy)
	}

	intervals, err := a.intervals.List(ctx, interval.ListOptions{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("listing intervals: %w", err)
	}

	projectNames, err := a.projectNames(ctx, groupBy)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Start:   start,
		End:     end,
		GroupBy: groupBy,
		Groups:  make(map[string]Bucket),
	}

	for _, iv := range intervals {
		seconds := clippedSeconds(iv, start, end)
		if seconds <= 0 {
			continue
		}
		if iv.IsIdle {
			summary.IdleTotal += seconds
			continue
		}
		summary.ActiveTotal += seconds

		key := a.groupKey(iv, groupBy, projectNames)
		bucket := summary.Groups[key]
		bucket.Seconds += seconds
		bucket.Count++
		summary.Groups[key] = bucket
	}

	for key, bucket := range summary.Groups {
		if summary.ActiveTotal > 0 {
			bucket.Percent = float64(bucket.Seconds) / float64(summary.ActiveTotal) * 100
		}
		summary.Groups[key] = bucket
	}

	return summary, nil
}

// DailyTotals returns active seconds per calendar day across [start, end),
// in the given location.
func (a *Aggregator) DailyTotals(ctx context.Context, start, end time.Time, loc *time.Location) ([]DayTotal, error) {
	if loc == nil {
		loc = time.Local
	}
	intervals, err := a.intervals.List(ctx, interval.ListOptions{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("listing intervals: %w", err)
	}

	perDay := make(map[time.Time]int64)
	for _, iv := range intervals {
		if iv.IsIdle {
			continue
		}
		s, e, ok := clipBounds(iv, start, end)
		if !ok {
			continue
		}
		// An interval crossing midnight credits each day with its own
		// portion.
		for cur := s; cur.Before(e); {
			local := cur.In(loc)
			day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			segEnd := day.AddDate(0, 0, 1)
			if e.Before(segEnd) {
				segEnd = e
			}
			perDay[day] += int64(segEnd.Sub(cur) / time.Second)
			cur = segEnd
		}
	}

	totals := make([]DayTotal, 0, len(perDay))
	for day, seconds := range perDay {
		totals = append(totals, DayTotal{Day: day, Seconds: seconds})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Day.Before(totals[j].Day) })
	return totals, nil
}

func (a *Aggregator) projectNames(ctx context.Context, groupBy GroupBy) (map[string]string, error) {
	if groupBy != GroupByProject {
		return nil, nil
	}
	projects, err := a.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (a *Aggregator) groupKey(iv interval.Interval, groupBy GroupBy, projectNames map[string]string) string {
	switch groupBy {
	case GroupByProject:
		if iv.ProjectID == nil {
			return UnassignedKey
		}
		if name, ok := projectNames[*iv.ProjectID]; ok {
			return name
		}
		return *iv.ProjectID
	case GroupByApp:
		return iv.AppName
	default:
		if token := FileToken(iv.WindowTitle); token != "" {
			return token
		}
		return "(no file)"
	}
}

// clippedSeconds derives the interval's duration inside [start, end).
// Always computed from the timestamp pair, never read from storage.
func clippedSeconds(iv interval.Interval, start, end time.Time) int64 {
	s, e, ok := clipBounds(iv, start, end)
	if !ok {
		return 0
	}
	return int64(e.Sub(s) / time.Second)
}

func clipBounds(iv interval.Interval, start, end time.Time) (time.Time, time.Time, bool) {
	s, e := iv.Start, iv.End
	if s.Before(start) {
		s = start
	}
	if e.After(end) {
		e = end
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}
