package tui

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

const (
	// commitTimeout bounds the create-and-link round trip.
	commitTimeout = time.Minute
	// lookupTimeout bounds one tracker listing for a picker.
	lookupTimeout = 15 * time.Second
	// parentLimit caps the parent picker, newest issues first.
	parentLimit = 50
)

// draftDoneMsg carries the outcome of a draft. id guards against results
// of a draft the user already cancelled.
type draftDoneMsg struct {
	id  int
	res *pipeline.Result
	err error
}

// chunkMsg reports how many characters have streamed in so far. p is
// waited on again so later chunks keep arriving.
type chunkMsg struct {
	id    int
	total int64
	p     *progress
}

type commitDoneMsg struct {
	created *tracker.CreatedIssue
	err     error
}

// progress counts streamed characters and wakes the view at most once per
// pending signal.
type progress struct {
	total  atomic.Int64
	signal chan struct{}
}

func newProgress() *progress {
	return &progress{signal: make(chan struct{}, 1)}
}

func (p *progress) add(chunk string) {
	p.total.Add(int64(len(chunk)))
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func runDraft(ctx context.Context, r Runner, id int, req models.DraftRequest, p *progress) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Run(ctx, req)
		close(p.signal)
		return draftDoneMsg{id: id, res: res, err: err}
	}
}

func waitForChunk(id int, p *progress) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-p.signal; !ok {
			return nil
		}
		return chunkMsg{id: id, total: p.total.Load(), p: p}
	}
}

func commitTicket(t tracker.Tracker, rec *models.TicketRecord, target tracker.Target, opts tracker.CommitOptions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		created, err := tracker.Commit(ctx, t, rec, target, opts)
		return commitDoneMsg{created: created, err: err}
	}
}

type projectsMsg struct {
	projects []tracker.Project
	err      error
}

type issueTypesMsg struct {
	project string
	types   []tracker.IssueType
	err     error
}

type parentsMsg struct {
	project string
	issues  []tracker.IssueSummary
	err     error
}

type usersMsg struct {
	query string
	users []tracker.User
	err   error
}

type parentPreviewMsg struct {
	key   string
	issue *tracker.Issue
	err   error
}

func lookup(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func loadProjects(t tracker.Tracker) tea.Cmd {
	return lookup(func(ctx context.Context) tea.Msg {
		projects, err := t.Projects(ctx)
		return projectsMsg{projects: projects, err: err}
	})
}

func loadIssueTypes(t tracker.Tracker, project string) tea.Cmd {
	return lookup(func(ctx context.Context) tea.Msg {
		types, err := t.IssueTypes(ctx, project)
		return issueTypesMsg{project: project, types: types, err: err}
	})
}

func loadParents(t tracker.Tracker, project string) tea.Cmd {
	return lookup(func(ctx context.Context) tea.Msg {
		issues, err := t.SearchIssues(ctx, project, "", parentLimit)
		return parentsMsg{project: project, issues: issues, err: err}
	})
}

func searchUsers(t tracker.Tracker, query string) tea.Cmd {
	return lookup(func(ctx context.Context) tea.Msg {
		users, err := t.SearchUsers(ctx, query)
		return usersMsg{query: query, users: users, err: err}
	})
}

func fetchParent(t tracker.Tracker, key string) tea.Cmd {
	return lookup(func(ctx context.Context) tea.Msg {
		issue, err := t.Issue(ctx, key)
		return parentPreviewMsg{key: key, issue: issue, err: err}
	})
}
