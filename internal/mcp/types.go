package mcp

import (
	"time"

	"github.com/jsiebert/worklog/internal/domain/stats"
)

// ListIntervalsParams are the inputs for the list_intervals tool.
type ListIntervalsParams struct {
	Start     string `json:"start,omitempty" jsonschema:"range start, RFC 3339 (omit for no lower bound)"`
	End       string `json:"end,omitempty" jsonschema:"range end, RFC 3339 (omit for no upper bound)"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"filter by project ID ('none' for unassigned)"`
	AppName   string `json:"app_name,omitempty" jsonschema:"filter by application name"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// IntervalResponse is the wire form of one stored interval.
type IntervalResponse struct {
	ID          string    `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Seconds     int64     `json:"seconds"`
	AppName     string    `json:"app_name"`
	WindowTitle string    `json:"window_title,omitempty"`
	IsIdle      bool      `json:"is_idle"`
	ProjectID   string    `json:"project_id,omitempty"`
}

// ListIntervalsResponse wraps list_intervals results.
type ListIntervalsResponse struct {
	Intervals []IntervalResponse `json:"intervals"`
	Count     int                `json:"count"`
}

// AggregateParams are the inputs for the aggregate tool.
type AggregateParams struct {
	Start   string `json:"start" jsonschema:"range start, RFC 3339"`
	End     string `json:"end" jsonschema:"range end, RFC 3339"`
	GroupBy string `json:"group_by,omitempty" jsonschema:"grouping key: project, app, or file (default project)"`
}

// AggregateResponse wraps an aggregation summary.
type AggregateResponse struct {
	Summary stats.Summary `json:"summary"`
}

// ListProjectsParams are the inputs for the list_projects tool.
type ListProjectsParams struct {
	RecentOnly bool `json:"recent_only,omitempty" jsonschema:"only projects used recently, most recent first"`
	Limit      int  `json:"limit,omitempty" jsonschema:"maximum number of results (recent_only only)"`
}

// ProjectResponse is the wire form of one project.
type ProjectResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Color    string     `json:"color"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

// ListProjectsResponse wraps list_projects results.
type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// CreateProjectParams are the inputs for the create_project tool.
type CreateProjectParams struct {
	Name  string `json:"name" jsonschema:"project display name, must be unique"`
	Color string `json:"color,omitempty" jsonschema:"hex display color (optional)"`
}

// AssignProjectParams are the inputs for the assign_project tool.
// Either an interval ID or a time range must be given.
type AssignProjectParams struct {
	IntervalID string `json:"interval_id,omitempty" jsonschema:"single interval to assign"`
	Start      string `json:"start,omitempty" jsonschema:"range start, RFC 3339 (range mode)"`
	End        string `json:"end,omitempty" jsonschema:"range end, RFC 3339 (range mode)"`
	AppName    string `json:"app_name,omitempty" jsonschema:"restrict range mode to one application"`
	ProjectID  string `json:"project_id,omitempty" jsonschema:"target project (omit to clear assignment)"`
}

// AssignProjectResponse reports how many intervals were reassigned.
type AssignProjectResponse struct {
	Updated int64 `json:"updated"`
}

// RepairPreviewParams are the inputs for the repair_preview tool.
type RepairPreviewParams struct {
	DropOverlappedIdle bool `json:"drop_overlapped_idle,omitempty" jsonschema:"delete idle intervals fully covered by active ones"`
	Compact            bool `json:"compact,omitempty" jsonschema:"also plan merging of adjacent same-activity intervals"`
}

// RepairPreviewResponse lists the planned repair steps without applying them.
type RepairPreviewResponse struct {
	Violations int      `json:"violations"`
	Planned    []string `json:"planned"`
}

// CurrentActivityParams are the inputs for the current_activity tool.
type CurrentActivityParams struct{}

// CurrentActivityResponse describes the activity being tracked right now.
type CurrentActivityResponse struct {
	Tracking    bool   `json:"tracking"`
	AppName     string `json:"app_name,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	IsIdle      bool   `json:"is_idle,omitempty"`
}
