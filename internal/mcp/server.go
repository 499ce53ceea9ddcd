package mcp

import (
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `worklog exposes a local activity-tracking database.
Stored intervals are disjoint half-open time ranges [start, end); durations are
always derived from the bounds. Use aggregate for time summaries, list_intervals
for raw data, and assign_project to attribute time to projects. repair_preview
is a dry run only and never modifies data.`

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
	// CompactGap is the merge threshold repair_preview plans compaction
	// with, normally the configured repair gap.
	CompactGap time.Duration
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "worklog",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.CompactGap))

	return server
}
