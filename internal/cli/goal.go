package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/stats"
	"github.com/sadopc/pomolog/internal/timeutil"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Track goals against logged focus time",
	}

	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a goal",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGoalAdd,
	}
	add.Flags().StringP("category", "c", "", "Category whose focus time counts toward the goal")
	add.Flags().IntP("minutes", "m", 0, "Target minutes")

	list := &cobra.Command{
		Use:   "list",
		Short: "List goals with progress",
		Args:  cobra.NoArgs,
		RunE:  runGoalList,
	}
	list.Flags().BoolP("all", "a", false, "Include completed goals")

	done := &cobra.Command{
		Use:   "done ID",
		Short: "Mark a goal as completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runGoalDone,
	}
	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE:  runGoalRemove,
	}

	cmd.AddCommand(add, list, done, rm)
	return cmd
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	minutes, _ := cmd.Flags().GetInt("minutes")
	if minutes < 0 {
		return fmt.Errorf("--minutes must not be negative")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.store.CreateGoal(strings.Join(args, " "), category, minutes)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s\n", g.ID)
	return nil
}

func runGoalList(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	goals, err := a.store.ListGoals(all)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(goals) == 0 {
		fmt.Fprintln(out, "No goals")
		return nil
	}

	logs := a.book.All()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGOAL\tCATEGORY\tPROGRESS\tCREATED")
	for _, g := range goals {
		var secs int64
		for _, l := range logs {
			if l.StartTime.Before(g.CreatedAt) || (g.Category != "" && l.Category != g.Category) {
				continue
			}
			focus, _ := stats.Split(l)
			secs += focus
		}
		progress := timeutil.FormatMinutes(timeutil.RoundMinutes(secs))
		if g.TargetMinutes > 0 {
			progress += " / " + timeutil.FormatMinutes(int64(g.TargetMinutes))
		}
		title := g.Title
		if g.Done {
			title += " (done)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.ID, title, g.Category, progress, humanize.Time(g.CreatedAt))
	}
	return tw.Flush()
}

func runGoalDone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.store.GetGoal(args[0]); err != nil {
		return err
	}
	if err := a.store.CompleteGoal(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", args[0])
	return nil
}

func runGoalRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteGoal(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
