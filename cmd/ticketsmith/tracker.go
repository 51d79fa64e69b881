package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ticketsmith/internal/config"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
)

var (
	trackerNoCache bool
	trackerLimit   int
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Inspect the Jira instance",
	Long: `Query the configured Jira instance: check credentials and list the
projects, issue types, users, issues and link types a ticket can target.

Project and issue-type listings are cached locally (cache.ttl); pass
--no-cache to bypass the cache.`,
}

var trackerCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify Jira credentials",
	Args:  cobra.NoArgs,
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		n, err := t.TestConnection(ctx)
		if err != nil {
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), a.cfg.Jira.ServerURL, err)
			return err
		}
		fmt.Printf("%s connected to %s as %s (%d projects visible)\n",
			color.GreenString("✓"), a.cfg.Jira.ServerURL, a.cfg.Jira.Email, n)
		_, source := config.JiraToken.Resolve(a.cfg)
		fmt.Printf("  api token from %s\n", source)
		return nil
	}),
}

var trackerProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		projects, err := t.Projects(ctx)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "KEY\tNAME")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\n", p.Key, p.Name)
		}
		return w.Flush()
	}),
}

var trackerIssueTypesCmd = &cobra.Command{
	Use:   "issue-types <project>",
	Short: "List the issue types of a project",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		types, err := t.IssueTypes(ctx, args[0])
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tSUB-TASK")
		for _, it := range types {
			fmt.Fprintf(w, "%s\t%s\t%t\n", it.ID, it.Name, it.Subtask)
		}
		return w.Flush()
	}),
}

var trackerUsersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search users to assign",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		users, err := t.SearchUsers(ctx, args[0])
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "NAME\tDISPLAY NAME")
		for _, u := range users {
			name := u.Name
			if name == "" {
				name = u.AccountID
			}
			fmt.Fprintf(w, "%s\t%s\n", name, u.DisplayName)
		}
		return w.Flush()
	}),
}

var trackerIssuesCmd = &cobra.Command{
	Use:   "issues <project> [summary text]",
	Short: "List issues that can serve as a parent",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		query := ""
		if len(args) > 1 {
			query = args[1]
		}
		limit := trackerLimit
		if limit <= 0 {
			limit = a.cfg.Jira.SearchLimit
		}
		issues, err := t.SearchIssues(ctx, args[0], query, limit)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "KEY\tTYPE\tSTATUS\tSUMMARY")
		for _, is := range issues {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", is.Key, is.Type, is.Status, is.Summary)
		}
		return w.Flush()
	}),
}

var trackerIssueCmd = &cobra.Command{
	Use:   "issue <key>",
	Short: "Show one issue",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		is, err := t.Issue(ctx, args[0])
		if err != nil {
			return err
		}
		heading := color.New(color.FgCyan, color.Bold)
		fmt.Printf("%s %s\n", heading.Sprint(is.Key), is.Summary)
		fmt.Printf("%s %s  %s %s\n", heading.Sprint("Type:"), is.Type, heading.Sprint("Status:"), is.Status)
		if is.Parent != nil {
			fmt.Printf("%s %s %s\n", heading.Sprint("Parent:"), is.Parent.Key, is.Parent.Summary)
		}
		if is.Description != "" {
			fmt.Printf("\n%s\n", is.Description)
		}
		return nil
	}),
}

var trackerLinkTypesCmd = &cobra.Command{
	Use:   "link-types",
	Short: "List issue link types",
	Args:  cobra.NoArgs,
	RunE: withTracker(func(ctx context.Context, a *app, t tracker.Tracker, args []string) error {
		types, err := t.LinkTypes(ctx)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "NAME\tOUTWARD\tINWARD")
		for _, lt := range types {
			fmt.Fprintf(w, "%s\t%s\t%s\n", lt.Name, lt.Outward, lt.Inward)
		}
		return w.Flush()
	}),
}

func init() {
	trackerCmd.PersistentFlags().BoolVar(&trackerNoCache, "no-cache", false, "Bypass the local metadata cache")
	trackerIssuesCmd.Flags().IntVar(&trackerLimit, "limit", 0, "Maximum results (default jira.search_limit)")

	trackerCmd.AddCommand(trackerCheckCmd)
	trackerCmd.AddCommand(trackerProjectsCmd)
	trackerCmd.AddCommand(trackerIssueTypesCmd)
	trackerCmd.AddCommand(trackerUsersCmd)
	trackerCmd.AddCommand(trackerIssuesCmd)
	trackerCmd.AddCommand(trackerIssueCmd)
	trackerCmd.AddCommand(trackerLinkTypesCmd)
}

// withTracker adapts a tracker action to a cobra RunE.
func withTracker(fn func(ctx context.Context, a *app, t tracker.Tracker, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.tracker(!trackerNoCache)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), a, t, args)
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
