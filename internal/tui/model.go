package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// Runner runs one draft-then-extract pass.
type Runner interface {
	Run(ctx context.Context, req models.DraftRequest) (*pipeline.Result, error)
}

// Config wires the shell to its collaborators.
type Config struct {
	// NewRunner builds a runner whose streamed output is reported to onChunk.
	NewRunner func(onChunk func(chunk string)) Runner
	// Tracker may be nil, in which case committing is disabled.
	Tracker   tracker.Tracker
	ServerURL string
	Commit    tracker.CommitOptions
	// Defaults prefill the target fields of the review form.
	Defaults tracker.Target
	Logger   *slog.Logger
}

// Model is the bubbletea model for the drafting shell.
type Model struct {
	cfg     Config
	logger  *slog.Logger
	session *pipeline.Session

	category models.Category
	input    textarea.Model
	spinner  spinner.Model
	form     *reviewForm

	// draftID increments for every draft so results of a cancelled one are
	// dropped.
	draftID    int
	cancel     context.CancelFunc
	received   int64
	committing bool

	status    string
	statusErr bool

	width    int
	height   int
	quitting bool
}

// New creates the model in the idle state.
func New(cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textarea.New()
	input.Placeholder = "Describe the requirement..."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetWidth(80)
	input.SetHeight(8)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		cfg:      cfg,
		session:  pipeline.NewSession(),
		category: models.CategoryTechnical,
		input:    input,
		spinner:  sp,
	}
	m.logger = logger.With("session", m.session.ID)
	return m
}

// Session exposes the current session state.
func (m *Model) Session() *pipeline.Session {
	return m.session
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(20, msg.Width-4))
		if m.form != nil {
			m.form.setWidth(msg.Width)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if m.session.State != models.StateDrafting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chunkMsg:
		if msg.id != m.draftID || m.session.State != models.StateDrafting {
			return m, nil
		}
		m.received = msg.total
		return m, waitForChunk(msg.id, msg.p)

	case draftDoneMsg:
		return m, m.finishDraft(msg)

	case commitDoneMsg:
		return m, m.finishCommit(msg)

	case projectsMsg, issueTypesMsg, parentsMsg, usersMsg, parentPreviewMsg:
		return m, m.applyLookup(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.session.State {
	case models.StateIdle:
		return m.updateIdle(msg)
	case models.StateDrafting:
		if msg.String() == "esc" {
			m.cancelDraft()
		}
		return nil
	case models.StateReview:
		return m.updateReview(msg)
	case models.StateFailed:
		m.reset(false)
		return m.input.Focus()
	case models.StateCommitted:
		m.reset(true)
		return m.input.Focus()
	}
	return nil
}

func (m *Model) updateIdle(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+t":
		m.category = m.category.Next()
		return nil
	case "ctrl+g":
		return m.startDraft()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) startDraft() tea.Cmd {
	req := models.DraftRequest{Category: m.category, FreeText: m.input.Value()}
	if err := req.Validate(); err != nil {
		if errors.Is(err, models.ErrEmptyInput) {
			m.setStatus("Enter a requirement before drafting", true)
		} else {
			m.setStatus(err.Error(), true)
		}
		return nil
	}
	if err := m.session.Begin(req); err != nil {
		m.setStatus(err.Error(), true)
		return nil
	}

	m.draftID++
	m.received = 0
	m.setStatus("", false)
	m.input.Blur()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	p := newProgress()
	runner := m.cfg.NewRunner(p.add)

	m.logger.Info("draft started", "category", string(req.Category), "chars", len(req.FreeText))
	return tea.Batch(
		m.spinner.Tick,
		runDraft(ctx, runner, m.draftID, req, p),
		waitForChunk(m.draftID, p),
	)
}

func (m *Model) cancelDraft() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.draftID++
	if err := m.session.Reset(); err != nil {
		m.logger.Error("reset session", "error", err)
	}
	m.logger.Info("draft cancelled")
	m.setStatus("Draft cancelled", false)
	m.input.Focus()
}

func (m *Model) finishDraft(msg draftDoneMsg) tea.Cmd {
	if msg.id != m.draftID || m.session.State != models.StateDrafting {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if err := m.session.Finish(msg.res, msg.err); err != nil {
		m.logger.Error("finish session", "error", err)
		return nil
	}

	switch m.session.State {
	case models.StateReview:
		m.logger.Info("draft ready for review", "summary", m.session.Record.Summary)
		m.form = newReviewForm(m.session.Record, m.defaults())
		if m.width > 0 {
			m.form.setWidth(m.width)
		}
		m.setStatus("", false)
		return tea.Batch(m.form.setFocus(fieldSummary), m.loadTargets())
	case models.StateFailed:
		m.logger.Error("draft failed", "error", m.session.Err)
	}
	return nil
}

func (m *Model) defaults() tracker.Target {
	d := m.cfg.Defaults
	if d.IssueType == "" {
		d.IssueType = "Task"
	}
	return d
}

func (m *Model) updateReview(msg tea.KeyMsg) tea.Cmd {
	if m.committing {
		return nil
	}
	switch msg.String() {
	case "ctrl+r":
		m.logger.Info("draft rejected")
		m.reset(false)
		m.setStatus("Ticket discarded", false)
		return m.input.Focus()
	case "ctrl+s":
		return m.commit()
	case "tab":
		return tea.Batch(m.form.next(), m.syncLookups())
	case "shift+tab":
		return tea.Batch(m.form.prev(), m.syncLookups())
	case "up", "down":
		if m.form.pickers[m.form.focus] != nil {
			delta := 1
			if msg.String() == "up" {
				delta = -1
			}
			return m.choose(m.form.focus, delta)
		}
	}
	return m.form.update(msg)
}

func (m *Model) commit() tea.Cmd {
	if m.cfg.Tracker == nil {
		m.setStatus("Jira is not configured; run `ticketsmith config` to set jira.server_url, jira.email and jira.api_token", true)
		return nil
	}
	rec, target := m.form.apply(m.session.Record)
	if !rec.Complete() {
		m.setStatus("Summary and description are required", true)
		return nil
	}
	if target.ProjectKey == "" {
		m.setStatus("Project is required", true)
		return nil
	}

	m.session.Record = rec
	m.committing = true
	m.setStatus("Creating issue in "+target.ProjectKey+"...", false)
	opts := m.cfg.Commit
	opts.Logger = m.logger
	return commitTicket(m.cfg.Tracker, rec, target, opts)
}

func (m *Model) finishCommit(msg commitDoneMsg) tea.Cmd {
	m.committing = false
	if msg.err != nil {
		m.logger.Error("commit failed", "error", msg.err)
		m.setStatus("Create failed: "+msg.err.Error(), true)
		return nil
	}
	if err := m.session.Commit(msg.created.Key); err != nil {
		m.logger.Error("commit session", "error", err)
		return nil
	}
	m.logger.Info("issue created", "key", msg.created.Key)
	m.setStatus("", false)
	return nil
}

// reset returns to idle. clearInput also discards the requirement text.
func (m *Model) reset(clearInput bool) {
	if err := m.session.Reset(); err != nil {
		m.logger.Error("reset session", "error", err)
	}
	m.form = nil
	m.received = 0
	m.setStatus("", false)
	if clearInput {
		m.input.Reset()
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}
