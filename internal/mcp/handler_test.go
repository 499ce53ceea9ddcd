package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/domain/repair"
	"github.com/jsiebert/worklog/internal/domain/stats"
	"github.com/jsiebert/worklog/internal/domain/tracking"
	"github.com/jsiebert/worklog/internal/sqlite"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

type testEnv struct {
	handler   *Handler
	intervals *interval.Service
	projects  *project.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	intervalRepo := sqlite.NewIntervalRepository(db)
	intervalSvc := interval.NewService(intervalRepo, logger)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), logger)

	handler := NewHandler(Services{
		Intervals: intervalSvc,
		Projects:  projectSvc,
		Stats:     stats.NewAggregator(intervalSvc, projectSvc, logger),
		Repair:    repair.NewEngine(intervalRepo, sqlite.NewSettingsRepository(db), logger),
	}, 2*time.Second)
	return &testEnv{handler: handler, intervals: intervalSvc, projects: projectSvc}
}

func (e *testEnv) capture(t *testing.T, start, end int, app string) *interval.Interval {
	t.Helper()
	iv, err := e.intervals.Capture(context.Background(), interval.CaptureRequest{
		Start:   at(start),
		End:     at(end),
		AppName: app,
	})
	require.NoError(t, err)
	return iv
}

func rfc(sec int) string {
	return at(sec).Format(time.RFC3339)
}

func TestListIntervals(t *testing.T) {
	env := newTestEnv(t)
	env.capture(t, 0, 100, "editor")
	env.capture(t, 100, 200, "browser")

	resp, err := env.handler.listIntervals(context.Background(), ListIntervalsParams{})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	require.Equal(t, "editor", resp.Intervals[0].AppName)
	require.EqualValues(t, 100, resp.Intervals[0].Seconds)

	resp, err = env.handler.listIntervals(context.Background(), ListIntervalsParams{
		Start: rfc(100), End: rfc(200),
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "browser", resp.Intervals[0].AppName)
}

func TestListIntervals_ProjectFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	proj, err := env.projects.Create(ctx, project.CreateRequest{Name: "worklog"})
	require.NoError(t, err)
	assigned := env.capture(t, 0, 100, "editor")
	env.capture(t, 100, 200, "browser")
	require.NoError(t, env.intervals.AssignProject(ctx, assigned.ID, &proj.ID))

	resp, err := env.handler.listIntervals(ctx, ListIntervalsParams{ProjectID: proj.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "editor", resp.Intervals[0].AppName)

	// "none" selects the unassigned rows.
	resp, err = env.handler.listIntervals(ctx, ListIntervalsParams{ProjectID: "none"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "browser", resp.Intervals[0].AppName)
}

func TestListIntervals_RejectsBadTimestamp(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.handler.listIntervals(context.Background(), ListIntervalsParams{Start: "yesterday"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestAggregate(t *testing.T) {
	env := newTestEnv(t)
	env.capture(t, 0, 300, "editor")
	env.capture(t, 300, 400, "browser")

	resp, err := env.handler.aggregate(context.Background(), AggregateParams{
		Start: rfc(0), End: rfc(400), GroupBy: "app",
	})
	require.NoError(t, err)
	require.EqualValues(t, 400, resp.Summary.ActiveTotal)
	require.EqualValues(t, 300, resp.Summary.Groups["editor"].Seconds)
	require.InDelta(t, 75.0, resp.Summary.Groups["editor"].Percent, 0.01)
}

func TestAggregate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var apiErr *APIError
	_, err := env.handler.aggregate(ctx, AggregateParams{End: rfc(100)})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)

	_, err = env.handler.aggregate(ctx, AggregateParams{Start: rfc(0), End: rfc(100), GroupBy: "color"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestCreateAndListProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.handler.createProject(ctx, CreateProjectParams{Name: "worklog", Color: "#ff8800"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "#ff8800", created.Color)

	_, err = env.handler.createProject(ctx, CreateProjectParams{Name: "worklog"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "DUPLICATE_NAME", apiErr.Code)

	resp, err := env.handler.listProjects(ctx, ListProjectsParams{})
	require.NoError(t, err)
	require.Len(t, resp.Projects, 1)
	require.Equal(t, "worklog", resp.Projects[0].Name)

	// Never-used projects do not show up in the recent list.
	resp, err = env.handler.listProjects(ctx, ListProjectsParams{RecentOnly: true})
	require.NoError(t, err)
	require.Empty(t, resp.Projects)
}

func TestAssignProject_ByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	proj, err := env.projects.Create(ctx, project.CreateRequest{Name: "worklog"})
	require.NoError(t, err)
	iv := env.capture(t, 0, 100, "editor")

	resp, err := env.handler.assignProject(ctx, AssignProjectParams{
		IntervalID: iv.ID, ProjectID: proj.ID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.Updated)

	// Assignment marks the project as recently used.
	recent, err := env.projects.RecentlyUsed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestAssignProject_ByRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	proj, err := env.projects.Create(ctx, project.CreateRequest{Name: "worklog"})
	require.NoError(t, err)
	env.capture(t, 0, 100, "editor")
	env.capture(t, 100, 200, "editor")
	env.capture(t, 200, 300, "browser")

	resp, err := env.handler.assignProject(ctx, AssignProjectParams{
		Start: rfc(0), End: rfc(300), AppName: "editor", ProjectID: proj.ID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, resp.Updated)
}

func TestAssignProject_RequiresTarget(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.handler.assignProject(context.Background(), AssignProjectParams{ProjectID: "p"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestAssignProject_UnknownInterval(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.handler.assignProject(context.Background(), AssignProjectParams{IntervalID: "missing"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestRepairPreview(t *testing.T) {
	env := newTestEnv(t)
	env.capture(t, 0, 100, "editor")
	env.capture(t, 100, 200, "browser")

	resp, err := env.handler.repairPreview(context.Background(), RepairPreviewParams{})
	require.NoError(t, err)
	require.Zero(t, resp.Violations)
	require.Empty(t, resp.Planned)

	// Resolved storage stays resolved; preview never mutates.
	list, err := env.intervals.List(context.Background(), interval.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

// TestRepairPreview_CompactPlansMerges verifies that requesting
// compaction plans merges using the handler's configured gap.
func TestRepairPreview_CompactPlansMerges(t *testing.T) {
	env := newTestEnv(t)
	env.capture(t, 0, 10, "editor")
	env.capture(t, 11, 21, "editor") // 1s gap, below the 2s threshold
	env.capture(t, 30, 40, "browser")

	resp, err := env.handler.repairPreview(context.Background(), RepairPreviewParams{Compact: true})
	require.NoError(t, err)
	require.Zero(t, resp.Violations)
	require.Len(t, resp.Planned, 1)

	// Preview only: the rows are untouched.
	list, err := env.intervals.List(context.Background(), interval.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)
}

type staticActivity struct {
	sample *tracking.Sample
}

func (s *staticActivity) Current() *tracking.Sample { return s.sample }

func TestCurrentActivity(t *testing.T) {
	env := newTestEnv(t)

	// No tracking loop attached.
	resp, err := env.handler.currentActivity(context.Background(), CurrentActivityParams{})
	require.NoError(t, err)
	require.False(t, resp.Tracking)

	env.handler.svc.Activity = &staticActivity{sample: &tracking.Sample{
		AppName: "editor", WindowTitle: "main.go",
	}}
	resp, err = env.handler.currentActivity(context.Background(), CurrentActivityParams{})
	require.NoError(t, err)
	require.True(t, resp.Tracking)
	require.Equal(t, "editor", resp.AppName)
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(context.Canceled))

	cases := []struct {
		err  error
		code string
	}{
		{interval.ErrIntervalNotFound, "NOT_FOUND"},
		{project.ErrProjectNotFound, "NOT_FOUND"},
		{project.ErrDuplicateName, "DUPLICATE_NAME"},
		{interval.ErrDegenerateInterval, "CONSTRAINT_VIOLATION"},
		{repair.ErrDivergence, "REPAIR_DIVERGENCE"},
		{interval.ErrInvalidInput, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		apiErr := MapError(tc.err)
		require.NotNil(t, apiErr, tc.code)
		require.Equal(t, tc.code, apiErr.Code)
	}
}
