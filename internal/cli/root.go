// Package cli is the pomolog command tree. With no subcommand it runs the
// terminal UI; the subcommands script the same store.
package cli

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/config"
	"github.com/sadopc/pomolog/internal/logbook"
	"github.com/sadopc/pomolog/internal/logging"
	"github.com/sadopc/pomolog/internal/notify"
	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/tui"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pomolog",
		Short: "Work/rest interval timer with a session log",
		Long: `pomolog alternates focus and break phases, records what you worked on,
and shows day, week, month and year statistics. Run it without a
subcommand to open the timer.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath(), "Config file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().String("db", "", "Database path (overrides db_path)")

	cmd.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newStatsCmd(),
		newLogCmd(),
		newGoalCmd(),
		newInspireCmd(),
		newConfigCmd(),
	)
	return cmd
}

// app is what every command needs: config, store and the log book.
type app struct {
	cfg      *config.Config
	store    *store.Store
	book     *logbook.Logbook
	closeLog func() error
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}

	closeLog, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}
	book := logbook.New(s)
	if err := book.Load(); err != nil {
		s.Close()
		closeLog()
		return nil, err
	}
	log.Debug("opened", "db", cfg.DBPath, "command", cmd.Name())
	return &app{cfg: cfg, store: s, book: book, closeLog: closeLog}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn("close database", "err", err)
	}
	a.closeLog()
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var notifier notify.Notifier = notify.Disabled{}
	if a.cfg.Notifications {
		notifier = notify.Fallback{notify.NewDesktop(5 * time.Second), notify.Bell{W: os.Stdout}}
	}

	m := tui.NewApp(tui.Deps{
		Store:    a.store,
		Book:     a.book,
		Config:   a.cfg,
		Notifier: notifier,
		Cue:      notify.Cue{W: os.Stdout, Enabled: a.cfg.Bell},
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
