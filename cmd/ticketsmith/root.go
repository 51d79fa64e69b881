package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ticketsmith/internal/config"
	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/internal/tui"
)

// Exit codes for the two failure kinds of a draft.
const (
	exitGenerationFailure = 3
	exitExtractionFailure = 4
)

var (
	flagLogLevel string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ticketsmith",
	Short: "Draft Jira tickets from plain-language requirements",
	Long: `ticketsmith turns a free-text requirement into a structured Jira ticket.

Describe the need, pick an input type (Technical Task, Business Requirement or
Process Change), and a language model drafts the summary, description, dates,
priority and the rest. Review and edit the draft, then create it in Jira,
optionally under or linked to an existing issue.

With no arguments, launches the interactive shell.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case pipeline.IsGenerationFailure(err):
		return exitGenerationFailure
	case pipeline.IsExtractionFailure(err):
		return exitExtractionFailure
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Also log to stderr (ignored by the interactive shell)")

	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(trackerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func runInteractive(ctx context.Context) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := a.generator()
	if err != nil {
		return err
	}

	var t tracker.Tracker
	if a.cfg.TrackerConfigured() {
		if t, err = a.tracker(true); err != nil {
			return err
		}
	} else {
		a.logger.Warn("jira not configured; committing disabled", "error", config.ErrNoTracker)
	}

	m := tui.New(tui.Config{
		NewRunner: func(onChunk func(string)) tui.Runner {
			return a.pipeline(onChunk)
		},
		Tracker:   t,
		ServerURL: a.cfg.Jira.ServerURL,
		Commit:    a.commitOptions(),
		Defaults: tracker.Target{
			ProjectKey: a.cfg.Jira.DefaultProject,
			IssueType:  a.cfg.Jira.DefaultIssueType,
		},
		Logger: a.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run interactive shell: %w", err)
	}

	if calls := client.Tracker().Calls(); calls > 0 {
		in, out := client.Tracker().Total()
		fmt.Fprintf(os.Stderr, "%s %d drafts, %d in / %d out tokens, ~$%.4f\n",
			color.CyanString("usage:"), calls, in, out, client.Tracker().Cost())
	}
	return nil
}
