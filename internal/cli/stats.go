package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/stats"
	"github.com/sadopc/pomolog/internal/timeutil"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for a day, week, month or year",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	cmd.Flags().String("view", string(stats.ViewDay), "day, week, month or year")
	cmd.Flags().String("date", "", "Any date inside the period (YYYY-MM-DD, default today)")
	return cmd
}

func parseDateFlag(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("date")
	if s == "" {
		return timeutil.StartOfDay(time.Now()), nil
	}
	d, err := timeutil.ParseDateKey(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	viewFlag, _ := cmd.Flags().GetString("view")
	view, err := stats.ParseView(viewFlag)
	if err != nil {
		return err
	}
	date, err := parseDateFlag(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sum := stats.Compute(a.book.All(), date, view, stats.Options{TimelineStartHour: a.cfg.TimelineStartHour})
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(out io.Writer, s stats.Summary) {
	fmt.Fprintln(out, s.View.Title(s.Date))
	fmt.Fprintf(out, "Total %s  focus %s  rest %s  (%d logs)\n",
		timeutil.FormatMinutes(s.TotalMinutes),
		timeutil.FormatMinutes(s.FocusMinutes),
		timeutil.FormatMinutes(s.RestMinutes),
		len(s.Logs))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if len(s.Categories) > 0 {
		fmt.Fprintln(tw, "\nCategories")
		for _, c := range s.Categories {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Category, timeutil.FormatMinutes(c.Minutes))
		}
	}
	if len(s.History) > 0 {
		fmt.Fprintln(tw, "\nHistory")
		for _, b := range s.History {
			fmt.Fprintf(tw, "  %s\t%s\n", b.Label, timeutil.FormatMinutes(b.Minutes))
		}
	}
	tw.Flush()

	if s.Timeline != nil && len(s.Timeline.Lanes) > 0 {
		fmt.Fprintln(out, "\nTimeline")
		for i, lane := range s.Timeline.Lanes {
			var parts []string
			for _, l := range lane {
				end := "now"
				if l.EndTime != nil {
					end = l.EndTime.Local().Format("15:04")
				}
				parts = append(parts, fmt.Sprintf("%s-%s %s", l.StartTime.Local().Format("15:04"), end, l.Category))
			}
			fmt.Fprintf(out, "  %d  %s\n", i+1, strings.Join(parts, ", "))
		}
	}
}
