package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// ErrIssueTypeNotFound is returned when the requested issue type does not
// exist in the target project.
var ErrIssueTypeNotFound = errors.New("issue type not found")

// DefaultLinkType relates a new issue to its parent when the parent cannot
// be set directly.
const DefaultLinkType = "Relates"

// Target is what the human chose for a reviewed ticket. None of it comes
// from the generated text.
type Target struct {
	ProjectKey string
	IssueType  string
	Assignee   string
	ParentKey  string
}

// CommitOptions tunes how a record maps onto tracker fields.
type CommitOptions struct {
	LinkType          string
	MapExtendedFields bool
	Logger            *slog.Logger
}

// IsSubtaskType reports whether an issue type carries its parent directly.
func IsSubtaskType(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sub-task", "subtask":
		return true
	default:
		return false
	}
}

// ResolveIssueType finds an issue type by case-insensitive name.
func ResolveIssueType(ctx context.Context, t Tracker, projectKey, name string) (*IssueType, error) {
	types, err := t.IssueTypes(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("list issue types: %w", err)
	}
	for i := range types {
		if strings.EqualFold(types[i].Name, name) {
			return &types[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in project %s", ErrIssueTypeNotFound, name, projectKey)
}

// BuildInput maps a reviewed record and target onto an IssueInput.
// Dates that do not parse as YYYY-MM-DD are left unset.
func BuildInput(rec *models.TicketRecord, target Target, issueTypeID string, opts CommitOptions) IssueInput {
	in := IssueInput{
		ProjectKey:  target.ProjectKey,
		IssueTypeID: issueTypeID,
		Summary:     rec.Summary,
		Description: rec.Description,
		Assignee:    target.Assignee,
	}
	if target.ParentKey != "" && IsSubtaskType(target.IssueType) {
		in.ParentKey = target.ParentKey
	}
	if due, ok := rec.ParsedDueDate(); ok {
		in.DueDate = due.Format(models.DateLayout)
	}
	if opts.MapExtendedFields {
		in.Priority = rec.Priority
		in.Labels = jiraLabels(rec.LabelList())
		in.Components = rec.ComponentList()
	}
	return in
}

// jiraLabels joins the words of each label with "-", since Jira rejects
// labels containing whitespace. Duplicates after joining are dropped.
func jiraLabels(labels []string) []string {
	var out []string
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.Join(strings.Fields(l), "-")
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// Commit creates the reviewed ticket. Sub-task types get their parent set
// directly; any other type with a parent is linked to it after creation,
// and a failed link is logged rather than returned.
func Commit(ctx context.Context, t Tracker, rec *models.TicketRecord, target Target, opts CommitOptions) (*CreatedIssue, error) {
	if rec == nil || !rec.Complete() {
		return nil, errors.New("commit ticket: summary and description are required")
	}
	if target.ProjectKey == "" {
		return nil, errors.New("commit ticket: project key is required")
	}
	if target.IssueType == "" {
		target.IssueType = "Task"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	it, err := ResolveIssueType(ctx, t, target.ProjectKey, target.IssueType)
	if err != nil {
		return nil, fmt.Errorf("commit ticket: %w", err)
	}

	in := BuildInput(rec, target, it.ID, opts)
	logger.Info("creating issue", "project", in.ProjectKey, "type", it.Name, "parent", target.ParentKey)

	created, err := t.CreateIssue(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("commit ticket: create issue: %w", err)
	}

	if target.ParentKey != "" && !IsSubtaskType(target.IssueType) {
		linkType := opts.LinkType
		if linkType == "" {
			linkType = DefaultLinkType
		}
		if err := t.LinkIssues(ctx, linkType, created.Key, target.ParentKey); err != nil {
			logger.Warn("failed to link issue to parent", "issue", created.Key, "parent", target.ParentKey, "error", err)
		}
	}
	return created, nil
}
