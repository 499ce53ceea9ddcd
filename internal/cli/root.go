// Package cli provides the worklog command-line interface.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jsiebert/worklog/internal/config"
	"github.com/jsiebert/worklog/internal/domain/interval"
	"github.com/jsiebert/worklog/internal/domain/project"
	"github.com/jsiebert/worklog/internal/domain/repair"
	"github.com/jsiebert/worklog/internal/domain/stats"
	"github.com/jsiebert/worklog/internal/domain/tracking"
	"github.com/jsiebert/worklog/internal/sqlite"
)

// App holds the wired services the commands run against.
type App struct {
	Config config.Config
	Logger *slog.Logger
	DB     *sqlite.DB

	Intervals *interval.Service
	Projects  *project.Service
	Stats     *stats.Aggregator
	Repair    *repair.Engine

	// Source observes foreground activity. Nil on platforms without an
	// observation backend; serve then runs the query surface only.
	Source tracking.Source
}

// NewRootCommand creates the root command for worklog.
func NewRootCommand(app *App, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "worklog",
		Short: "Local activity time tracker",
		Long: `worklog records foreground activity as disjoint time intervals in a
local SQLite database and serves queries over MCP.

Every stored interval is a half-open range [start, end); overlaps are
resolved at write time, so summing durations never double-counts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(app),
		newRepairCommand(app),
		newReportCommand(app),
		newProjectCommand(app),
	)

	return root
}
