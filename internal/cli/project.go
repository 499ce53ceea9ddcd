package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsiebert/worklog/internal/domain/project"
)

func newProjectCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectListCommand(app),
		newProjectAddCommand(app),
		newProjectRemoveCommand(app),
		newProjectRecentCommand(app),
	)

	return cmd
}

func newProjectListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			for _, p := range projects {
				printProject(p)
			}
			return nil
		},
	}
}

func newProjectAddCommand(app *App) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := app.Projects.Create(cmd.Context(), project.CreateRequest{
				Name:  args[0],
				Color: color,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created project %q (%s)\n", proj.Name, proj.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color as a hex code")

	return cmd
}

func newProjectRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project",
		Long: `Delete a project by ID. Intervals that referenced it are kept and
become unassigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted project %s\n", args[0])
			return nil
		},
	}
}

func newProjectRecentCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently used projects, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.RecentlyUsed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No recently used projects.")
				return nil
			}
			for _, p := range projects {
				printProject(p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of projects to show")

	return cmd
}

func printProject(p project.Project) {
	lastUsed := "never"
	if p.LastUsed != nil {
		lastUsed = p.LastUsed.Local().Format(time.DateTime)
	}
	fmt.Printf("%s  %-24s %-8s last used: %s\n", p.ID, p.Name, p.Color, lastUsed)
}
