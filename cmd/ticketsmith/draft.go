package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/render"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/internal/watch"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// errNoInput is returned when no requirement text was given.
var errNoInput = errors.New("no requirement text: pass it as an argument, with --file, or on stdin")

var (
	draftCategory string
	draftFile     string
	draftFormat   string
	draftStream   bool
	draftWatch    bool
	draftCreate   bool
	draftTarget   tracker.Target
)

var draftCmd = &cobra.Command{
	Use:   "draft [text]",
	Short: "Draft a ticket from a requirement",
	Long: `Draft a Jira ticket from a free-text requirement and print it.

The requirement comes from the arguments, --file, or stdin when it is not a
terminal. Generation failures exit with status 3; output that does not contain
a ticket exits with status 4 and the raw model output is printed instead.

Examples:
  ticketsmith draft "Users need to reset their password from the login page"
  ticketsmith draft -c business --file need.txt --format json
  cat need.txt | ticketsmith draft --create --project AI --parent AI-12
  ticketsmith draft --file need.txt --watch --stream`,
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().StringVarP(&draftCategory, "category", "c", "technical", "Input type: technical, business or process")
	draftCmd.Flags().StringVarP(&draftFile, "file", "f", "", "Read the requirement from a file")
	draftCmd.Flags().StringVar(&draftFormat, "format", "text", "Output format: text, json, yaml or markup")
	draftCmd.Flags().BoolVar(&draftStream, "stream", false, "Echo model output to stderr as it arrives")
	draftCmd.Flags().BoolVarP(&draftWatch, "watch", "w", false, "Re-draft whenever --file changes")
	draftCmd.Flags().BoolVar(&draftCreate, "create", false, "Create the drafted ticket in Jira")
	draftCmd.Flags().StringVarP(&draftTarget.ProjectKey, "project", "p", "", "Project key for --create (default jira.default_project)")
	draftCmd.Flags().StringVarP(&draftTarget.IssueType, "type", "t", "", "Issue type for --create (default jira.default_issue_type)")
	draftCmd.Flags().StringVar(&draftTarget.Assignee, "assignee", "", "Assignee user name for --create")
	draftCmd.Flags().StringVar(&draftTarget.ParentKey, "parent", "", "Parent issue key for --create")
}

func runDraft(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(draftFormat)
	if err != nil {
		return err
	}
	category, err := models.ParseCategory(draftCategory)
	if err != nil {
		return err
	}
	if draftWatch && draftFile == "" {
		return errors.New("--watch requires --file")
	}
	if draftWatch && draftCreate {
		return errors.New("--watch cannot be combined with --create")
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.generator(); err != nil {
		return err
	}

	var t tracker.Tracker
	target := draftTarget
	if draftCreate {
		if t, err = a.tracker(true); err != nil {
			return err
		}
		if target.ProjectKey == "" {
			target.ProjectKey = a.cfg.Jira.DefaultProject
		}
		if target.IssueType == "" {
			target.IssueType = a.cfg.Jira.DefaultIssueType
		}
		if target.ProjectKey == "" {
			return errors.New("--create needs --project or jira.default_project")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := drafter{
		app:    a,
		format: format,
		stream: draftStream,
		create: draftCreate,
		target: target,
		tr:     t,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	if draftWatch {
		return d.watch(ctx, category, draftFile)
	}

	text, err := readInput(args, draftFile, os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
	if err != nil {
		return err
	}
	return d.once(ctx, models.DraftRequest{Category: category, FreeText: text})
}

// readInput picks the requirement text: --file, then arguments, then stdin
// when it is not a terminal.
func readInput(args []string, file string, stdin io.Reader, stdinIsTTY bool) (string, error) {
	var text string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read requirement: %w", err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	case !stdinIsTTY:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errNoInput
	}
	return text, nil
}

// drafter runs drafts for the draft command.
type drafter struct {
	app    *app
	format render.Format
	stream bool
	create bool
	target tracker.Target
	tr     tracker.Tracker
	out    io.Writer
	errOut io.Writer
}

func (d *drafter) once(ctx context.Context, req models.DraftRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var onChunk func(string)
	if d.stream {
		onChunk = func(chunk string) { io.WriteString(d.errOut, chunk) }
	}

	res, err := d.app.pipeline(onChunk).Run(ctx, req)
	if d.stream {
		fmt.Fprintln(d.errOut)
	}
	if err != nil {
		if pipeline.IsExtractionFailure(err) && res != nil {
			fmt.Fprintln(d.errOut, color.RedString("No ticket could be read from the model output. Raw output:"))
			fmt.Fprintln(d.out, res.Raw)
		}
		return err
	}

	if err := render.Write(d.out, d.format, res.Record); err != nil {
		return fmt.Errorf("render ticket: %w", err)
	}

	if !d.create {
		return nil
	}
	created, err := tracker.Commit(ctx, d.tr, res.Record, d.target, d.app.commitOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(d.errOut, "%s %s %s/browse/%s\n",
		color.GreenString("✓"), created.Key, d.app.cfg.Jira.ServerURL, created.Key)
	return nil
}

// watch drafts once, then again on every change to file, until ctx ends.
// Failures of a single draft are reported and watching continues.
func (d *drafter) watch(ctx context.Context, category models.Category, file string) error {
	run := func(content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		if err := d.once(ctx, models.DraftRequest{Category: category, FreeText: content}); err != nil {
			fmt.Fprintln(d.errOut, color.RedString("draft failed: %v", err))
		}
		fmt.Fprintln(d.errOut, color.New(color.Faint).Sprintf("-- watching %s (ctrl+c to stop)", file))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read requirement: %w", err)
	}
	run(string(data))

	return watch.File(ctx, file, watch.DefaultDebounce, run)
}
