package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsiebert/worklog/internal/domain/stats"
)

func newReportCommand(app *App) *cobra.Command {
	var (
		from  string
		to    string
		by    string
		daily bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tracked time over a date range",
		Long: `Report sums tracked time between two dates, grouped by project,
application, or file. Dates are YYYY-MM-DD in local time and the whole
end day is included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}

			if daily {
				totals, err := app.Stats.DailyTotals(cmd.Context(), start, end, time.Local)
				if err != nil {
					return err
				}
				for _, day := range totals {
					fmt.Printf("%s  %s\n", day.Day.Format("2006-01-02"), formatSeconds(day.Seconds))
				}
				return nil
			}

			groupBy := stats.GroupBy(by)
			switch groupBy {
			case stats.GroupByProject, stats.GroupByApp, stats.GroupByFile:
			default:
				return fmt.Errorf("invalid --by %q: must be project, app, or file", by)
			}

			summary, err := app.Stats.Aggregate(cmd.Context(), start, end, groupBy)
			if err != nil {
				return err
			}

			fmt.Printf("Active time %s to %s: %s",
				start.Format("2006-01-02"), to, formatSeconds(summary.ActiveTotal))
			if summary.IdleTotal > 0 {
				fmt.Printf(" (+%s idle)", formatSeconds(summary.IdleTotal))
			}
			fmt.Println()

			for _, key := range sortedKeys(summary.Groups) {
				bucket := summary.Groups[key]
				fmt.Printf("  %-40s %10s  %5.1f%%\n", key, formatSeconds(bucket.Seconds), bucket.Percent)
			}
			return nil
		},
	}

	today := time.Now().Format("2006-01-02")
	cmd.Flags().StringVar(&from, "from", today, "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", today, "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&by, "by", "project", "Grouping: project, app, or file")
	cmd.Flags().BoolVar(&daily, "daily", false, "Print one active-time total per day instead")

	return cmd
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", from, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", from, err)
	}
	endDay, err := time.ParseInLocation("2006-01-02", to, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", to, err)
	}
	end := endDay.AddDate(0, 0, 1)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must not be after --to")
	}
	return start, end, nil
}

// sortedKeys orders group keys by descending time, ties by name.
func sortedKeys(groups map[string]stats.Bucket) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]], groups[keys[j]]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return keys[i] < keys[j]
	})
	return keys
}

func formatSeconds(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
