package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools registers all worklog tools on the server. Input schemas
// are inferred from the typed parameter structs.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_intervals",
		Description: "List recorded activity intervals, optionally filtered by time range, project, or application",
	}, adapt(h.listIntervals))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "aggregate",
		Description: "Sum tracked time over a range, grouped by project, application, or file",
	}, adapt(h.aggregate))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects, optionally restricted to recently used ones",
	}, adapt(h.listProjects))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a new project to attribute tracked time to",
	}, adapt(h.createProject))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "assign_project",
		Description: "Assign intervals to a project, by interval ID or by time range",
	}, adapt(h.assignProject))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "repair_preview",
		Description: "Dry-run the overlap repair and report the mutations it would apply",
	}, adapt(h.repairPreview))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "current_activity",
		Description: "Report the foreground activity being tracked right now",
	}, adapt(h.currentActivity))
}

// adapt lifts a handler method into the SDK tool handler shape.
func adapt[In, Out any](fn func(ctx context.Context, params In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, params)
		return nil, out, err
	}
}
