package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/jsiebert/worklog/internal/domain/tracking"
	"github.com/jsiebert/worklog/internal/mcp"
)

func newServeCommand(app *App) *cobra.Command {
	var (
		useHTTP bool
		noTrack bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker and the MCP server",
		Long: `Serve polls foreground activity, records it as disjoint intervals, and
exposes the database over MCP. The default transport is stdio; --http
serves streamable HTTP on the configured host and port instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-stop
				app.Logger.Info("shutting down")
				cancel()
			}()

			var activity mcp.ActivityProvider
			loopDone := make(chan struct{})
			if app.Source != nil && !noTrack {
				tracker := tracking.NewTracker(tracking.IgnoreRules{
					Apps:   app.Config.Tracking.IgnoredApps,
					Titles: app.Config.Tracking.IgnoredTitles,
				})
				activity = tracker
				loop := tracking.NewLoop(app.Source, app.Intervals, tracker, app.Config.Tracking.PollInterval, app.Logger)
				go func() {
					defer close(loopDone)
					loop.Run(ctx)
				}()
			} else {
				close(loopDone)
				app.Logger.Info("activity tracking disabled, serving queries only")
			}

			server := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Intervals: app.Intervals,
					Projects:  app.Projects,
					Stats:     app.Stats,
					Repair:    app.Repair,
					Activity:  activity,
				},
				Logger:     app.Logger,
				CompactGap: app.Config.Repair.CompactGap,
			})

			var err error
			if useHTTP {
				err = serveHTTP(ctx, app, server)
			} else {
				err = server.Run(ctx, &sdkmcp.StdioTransport{})
			}
			cancel()
			<-loopDone
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useHTTP, "http", false, "Serve MCP over streamable HTTP instead of stdio")
	cmd.Flags().BoolVar(&noTrack, "no-track", false, "Serve queries without recording activity")

	return cmd
}

func serveHTTP(ctx context.Context, app *App, server *sdkmcp.Server) error {
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", handler)
	router.Handle("/mcp/", handler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
