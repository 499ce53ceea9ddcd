package mcp

import (
	"context"
	"time"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/domain/repair"
	"github.com/jsiebert/worklog/internal/domain/stats"
	"github.com/jsiebert/worklog/internal/domain/tracking"
)

// IntervalService defines interval operations needed by MCP.
type IntervalService interface {
	List(ctx context.Context, opts interval.ListOptions) ([]interval.Interval, error)
	AssignProject(ctx context.Context, id string, projectID *string) error
	AssignProjectByRange(ctx context.Context, start, end time.Time, appName string, projectID *string) (int64, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
	RecentlyUsed(ctx context.Context, limit int) ([]project.Project, error)
	MarkUsed(ctx context.Context, id string) error
}

// StatsService defines aggregation operations needed by MCP.
type StatsService interface {
	Aggregate(ctx context.Context, start, end time.Time, groupBy stats.GroupBy) (*stats.Summary, error)
}

// RepairService defines repair operations needed by MCP. Only the dry
// run is exposed; destructive repair stays on the CLI.
type RepairService interface {
	FindViolations(ctx context.Context) ([]interval.ViolationPair, error)
	Preview(ctx context.Context, opts repair.Options) ([]interval.Mutation, error)
}

// ActivityProvider reports what is being tracked right now. Nil when the
// server runs without a tracking loop.
type ActivityProvider interface {
	Current() *tracking.Sample
}

// Services contains all domain services needed by MCP.
type Services struct {
	Intervals IntervalService
	Projects  ProjectService
	Stats     StatsService
	Repair    RepairService
	Activity  ActivityProvider
}

// Handler implements the MCP tools on top of the domain services.
type Handler struct {
	svc        Services
	compactGap time.Duration
}

// NewHandler creates a new MCP handler. compactGap is the merge
// threshold used when a repair preview requests compaction.
func NewHandler(svc Services, compactGap time.Duration) *Handler {
	return &Handler{svc: svc, compactGap: compactGap}
}

// projectIDNone in a filter selects intervals with no project assigned.
const projectIDNone = "none"

func (h *Handler) listIntervals(ctx context.Context, params ListIntervalsParams) (ListIntervalsResponse, error) {
	var resp ListIntervalsResponse

	opts := interval.ListOptions{
		AppName: params.AppName,
		Limit:   params.Limit,
	}
	var err error
	if opts.Start, err = parseTime(params.Start); err != nil {
		return resp, err
	}
	if opts.End, err = parseTime(params.End); err != nil {
		return resp, err
	}
	switch params.ProjectID {
	case "":
	case projectIDNone:
		unassigned := ""
		opts.ProjectID = &unassigned
	default:
		id := params.ProjectID
		opts.ProjectID = &id
	}

	intervals, err := h.svc.Intervals.List(ctx, opts)
	if err != nil {
		return resp, mapError(err)
	}
	resp.Intervals = make([]IntervalResponse, 0, len(intervals))
	for _, iv := range intervals {
		resp.Intervals = append(resp.Intervals, toIntervalResponse(iv))
	}
	resp.Count = len(resp.Intervals)
	return resp, nil
}

func (h *Handler) aggregate(ctx context.Context, params AggregateParams) (AggregateResponse, error) {
	var resp AggregateResponse

	start, err := parseTime(params.Start)
	if err != nil {
		return resp, err
	}
	end, err := parseTime(params.End)
	if err != nil {
		return resp, err
	}
	if start.IsZero() || end.IsZero() {
		return resp, &APIError{Code: "INVALID_INPUT", Message: "start and end are required"}
	}
	groupBy := stats.GroupByProject
	if params.GroupBy != "" {
		groupBy = stats.GroupBy(params.GroupBy)
	}
	switch groupBy {
	case stats.GroupByProject, stats.GroupByApp, stats.GroupByFile:
	default:
		return resp, &APIError{Code: "INVALID_INPUT", Message: "group_by must be project, app, or file"}
	}

	summary, err := h.svc.Stats.Aggregate(ctx, start, end, groupBy)
	if err != nil {
		return resp, mapError(err)
	}
	resp.Summary = *summary
	return resp, nil
}

func (h *Handler) listProjects(ctx context.Context, params ListProjectsParams) (ListProjectsResponse, error) {
	var resp ListProjectsResponse

	var (
		projects []project.Project
		err      error
	)
	if params.RecentOnly {
		projects, err = h.svc.Projects.RecentlyUsed(ctx, params.Limit)
	} else {
		projects, err = h.svc.Projects.List(ctx)
	}
	if err != nil {
		return resp, mapError(err)
	}
	resp.Projects = make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp.Projects = append(resp.Projects, ProjectResponse{
			ID:       p.ID,
			Name:     p.Name,
			Color:    p.Color,
			LastUsed: p.LastUsed,
		})
	}
	return resp, nil
}

func (h *Handler) createProject(ctx context.Context, params CreateProjectParams) (ProjectResponse, error) {
	proj, err := h.svc.Projects.Create(ctx, project.CreateRequest{
		Name:  params.Name,
		Color: params.Color,
	})
	if err != nil {
		return ProjectResponse{}, mapError(err)
	}
	return ProjectResponse{
		ID:       proj.ID,
		Name:     proj.Name,
		Color:    proj.Color,
		LastUsed: proj.LastUsed,
	}, nil
}

func (h *Handler) assignProject(ctx context.Context, params AssignProjectParams) (AssignProjectResponse, error) {
	var resp AssignProjectResponse

	var projectID *string
	if params.ProjectID != "" {
		id := params.ProjectID
		projectID = &id
	}

	if params.IntervalID != "" {
		if err := h.svc.Intervals.AssignProject(ctx, params.IntervalID, projectID); err != nil {
			return resp, mapError(err)
		}
		resp.Updated = 1
	} else {
		start, err := parseTime(params.Start)
		if err != nil {
			return resp, err
		}
		end, err := parseTime(params.End)
		if err != nil {
			return resp, err
		}
		if start.IsZero() || end.IsZero() {
			return resp, &APIError{Code: "INVALID_INPUT", Message: "interval_id or a start/end range is required"}
		}
		resp.Updated, err = h.svc.Intervals.AssignProjectByRange(ctx, start, end, params.AppName, projectID)
		if err != nil {
			return resp, mapError(err)
		}
	}

	if projectID != nil {
		if err := h.svc.Projects.MarkUsed(ctx, *projectID); err != nil {
			return resp, mapError(err)
		}
	}
	return resp, nil
}

func (h *Handler) repairPreview(ctx context.Context, params RepairPreviewParams) (RepairPreviewResponse, error) {
	var resp RepairPreviewResponse

	pairs, err := h.svc.Repair.FindViolations(ctx)
	if err != nil {
		return resp, mapError(err)
	}
	resp.Violations = len(pairs)

	muts, err := h.svc.Repair.Preview(ctx, repair.Options{
		DropOverlappedIdle: params.DropOverlappedIdle,
		Compact:            params.Compact,
		CompactGap:         h.compactGap,
	})
	if err != nil {
		return resp, mapError(err)
	}
	resp.Planned = make([]string, 0, len(muts))
	for _, m := range muts {
		resp.Planned = append(resp.Planned, m.String())
	}
	return resp, nil
}

func (h *Handler) currentActivity(_ context.Context, _ CurrentActivityParams) (CurrentActivityResponse, error) {
	if h.svc.Activity == nil {
		return CurrentActivityResponse{}, nil
	}
	sample := h.svc.Activity.Current()
	if sample == nil {
		return CurrentActivityResponse{}, nil
	}
	return CurrentActivityResponse{
		Tracking:    true,
		AppName:     sample.AppName,
		WindowTitle: sample.WindowTitle,
		IsIdle:      sample.Idle,
	}, nil
}

func toIntervalResponse(iv interval.Interval) IntervalResponse {
	resp := IntervalResponse{
		ID:          iv.ID,
		Start:       iv.Start,
		End:         iv.End,
		Seconds:     int64(iv.Duration() / time.Second),
		AppName:     iv.AppName,
		WindowTitle: iv.WindowTitle,
		IsIdle:      iv.IsIdle,
	}
	if iv.ProjectID != nil {
		resp.ProjectID = *iv.ProjectID
	}
	return resp
}

func parseTime(val string) (time.Time, error) {
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, &APIError{Code: "INVALID_INPUT", Message: "timestamps must be RFC 3339", Details: val}
	}
	return t, nil
}
