package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsiebert/worklog/internal/domain/repair"
)

func newRepairCommand(app *App) *cobra.Command {
	var (
		apply      bool
		backupDone bool
		dropIdle   bool
		compact    bool
		compactGap time.Duration
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Find and fix overlapping intervals",
		Long: `Repair scans the database for overlapping intervals and resolves each
conflict in favor of the later interval. Without --apply it only prints
what would change. Applying is destructive and requires --backup-done to
confirm a database backup exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := repair.Options{
				DropOverlappedIdle: dropIdle,
				Compact:            compact,
				CompactGap:         compactGap,
				BudgetFactor:       app.Config.Repair.BudgetFactor,
			}

			if !apply {
				muts, err := app.Repair.Preview(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if len(muts) == 0 {
					fmt.Println("No overlapping intervals found.")
					return nil
				}
				fmt.Printf("Planned repairs (%d):\n", len(muts))
				for _, m := range muts {
					fmt.Printf("  - %s\n", m)
				}
				fmt.Println("\nDry run: no changes made. Re-run with --apply --backup-done to fix.")
				return nil
			}

			if !backupDone {
				return fmt.Errorf("refusing to modify data: back up the database first, then pass --backup-done")
			}

			report, err := app.Repair.Apply(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if report.InitialViolations == 0 {
				fmt.Println("No overlapping intervals found.")
				return nil
			}
			fmt.Printf("Resolved %d overlapping pair(s): %d deleted, %d truncated, %d merged.\n",
				report.InitialViolations, report.Deleted, report.Truncated, report.Merged)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the repairs instead of previewing them")
	cmd.Flags().BoolVar(&backupDone, "backup-done", false, "Confirm a database backup exists (required with --apply)")
	cmd.Flags().BoolVar(&dropIdle, "drop-idle", false, "Delete idle intervals fully covered by active ones")
	cmd.Flags().BoolVar(&compact, "compact", false, "Merge adjacent intervals of the same activity")
	cmd.Flags().DurationVar(&compactGap, "compact-gap", 2*time.Second, "Maximum gap to bridge when compacting")

	return cmd
}
