package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/config"
)

func newInspireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspire",
		Short: "Keep a list of notes that keep you going",
	}
	add := &cobra.Command{
		Use:   "add TEXT",
		Short: "Save an inspiration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, _ := cmd.Flags().GetStringSlice("image")
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.store.AddInspiration(strings.Join(args, " "), images)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", item.ID)
			return nil
		},
	}
	add.Flags().StringSlice("image", nil, "Image reference (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List inspirations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			items := a.store.LoadInspirations()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No inspirations")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%s)\n", shortID(it.ID), it.Content, humanize.Time(it.CreatedAt))
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config               %s\n", path)
			fmt.Fprintf(out, "db_path              %s\n", cfg.DBPath)
			fmt.Fprintf(out, "log_file             %s\n", cfg.LogFile)
			fmt.Fprintf(out, "log_level            %s\n", cfg.LogLevel)
			fmt.Fprintf(out, "notifications        %t\n", cfg.Notifications)
			fmt.Fprintf(out, "bell                 %t\n", cfg.Bell)
			fmt.Fprintf(out, "reminder_minutes     %d\n", cfg.ReminderMinutes)
			fmt.Fprintf(out, "timeline_start_hour  %d\n", cfg.TimelineStartHour)
			return nil
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
