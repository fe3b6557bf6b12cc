package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Add, list and remove session logs",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a log by hand",
		Args:  cobra.NoArgs,
		RunE:  runLogAdd,
	}
	add.Flags().String("date", "", "Day of the session (YYYY-MM-DD, default today)")
	add.Flags().String("start", "", "Start time (HH:MM)")
	add.Flags().String("end", "", "End time (HH:MM)")
	add.Flags().StringP("category", "c", "", "Category (default Work)")
	add.Flags().StringP("desc", "d", "", "Description")
	add.MarkFlagRequired("start")
	add.MarkFlagRequired("end")

	list := &cobra.Command{
		Use:   "list",
		Short: "List logs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runLogList,
	}
	list.Flags().String("date", "", "Only logs from this day (YYYY-MM-DD)")
	list.Flags().StringP("category", "c", "", "Only logs in this category")
	list.Flags().IntP("limit", "n", 20, "Maximum number of logs, 0 for all")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a log",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogRemove,
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func runLogAdd(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = timeutil.DateKey(time.Now())
	}
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	category, _ := cmd.Flags().GetString("category")
	desc, _ := cmd.Flags().GetString("desc")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.book.ManualInsert(logbook.ManualEntry{
		Date:        date,
		Start:       start,
		End:         end,
		Category:    category,
		Description: desc,
	})
	if err != nil {
		return fmt.Errorf("add log: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s, %s)\n", e.ID, e.Category, timeutil.FormatDuration(e.Duration))
	return nil
}

func runLogList(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var logs []store.LogEntry
	switch {
	case date != "":
		logs = a.book.ByDateKey(date)
	case category != "":
		logs = a.book.ByCategory(category)
	default:
		logs = a.book.All()
	}
	if date != "" && category != "" {
		logs = filterCategory(logs, category)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartTime.After(logs[j].StartTime) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	out := cmd.OutOrStdout()
	if len(logs) == 0 {
		fmt.Fprintln(out, "No logs")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tDURATION\tCATEGORY\tDESCRIPTION\tWHEN")
	for _, l := range logs {
		end := "-"
		if l.EndTime != nil {
			end = l.EndTime.Local().Format("15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			timeutil.DateKey(l.StartTime),
			l.StartTime.Local().Format("15:04"), end,
			timeutil.FormatDuration(l.Duration),
			l.Category,
			l.Description,
			humanize.Time(l.StartTime),
		)
	}
	return tw.Flush()
}

func filterCategory(logs []store.LogEntry, category string) []store.LogEntry {
	var out []store.LogEntry
	for _, l := range logs {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

func runLogRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.book.Get(args[0]); !ok {
		return fmt.Errorf("remove log: %w", logbook.ErrNotFound)
	}
	if err := a.book.Remove(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
