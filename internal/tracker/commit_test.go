package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

type fakeTracker struct {
	types     []IssueType
	typesErr  error
	created   []IssueInput
	createErr error
	links     [][3]string
	linkErr   error
	nextKey   string
}

func (f *fakeTracker) TestConnection(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeTracker) Projects(ctx context.Context) ([]Project, error) { return nil, nil }
func (f *fakeTracker) IssueTypes(ctx context.Context, projectKey string) ([]IssueType, error) {
	return f.types, f.typesErr
}
func (f *fakeTracker) SearchUsers(ctx context.Context, query string) ([]User, error) { return nil, nil }
func (f *fakeTracker) SearchIssues(ctx context.Context, projectKey, query string, limit int) ([]IssueSummary, error) {
	return nil, nil
}
func (f *fakeTracker) Issue(ctx context.Context, key string) (*Issue, error) { return nil, ErrNotFound }
func (f *fakeTracker) LinkTypes(ctx context.Context) ([]LinkType, error)     { return nil, nil }
func (f *fakeTracker) CreateIssue(ctx context.Context, in IssueInput) (*CreatedIssue, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return &CreatedIssue{Key: f.nextKey}, nil
}
func (f *fakeTracker) LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	f.links = append(f.links, [3]string{linkType, inwardKey, outwardKey})
	return f.linkErr
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		types: []IssueType{
			{ID: "1", Name: "Task"},
			{ID: "2", Name: "Sub-task", Subtask: true},
			{ID: "3", Name: "Story"},
		},
		nextKey: "AI-9",
	}
}

var reviewed = &models.TicketRecord{
	Summary:     "Fix login",
	Description: "h2. Background\nbroken",
	DueDate:     "2024-06-01",
	Priority:    "High",
	Labels:      "AI, Technical",
	Components:  "auth",
	EpicLink:    "Identity",
}

func TestCommit_SubtaskSetsParentDirectly(t *testing.T) {
	ft := newFakeTracker()

	created, err := Commit(context.Background(), ft, reviewed, Target{ProjectKey: "AI", IssueType: "sub-task", ParentKey: "AI-7"}, CommitOptions{})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if created.Key != "AI-9" {
		t.Errorf("Key = %q", created.Key)
	}
	in := ft.created[0]
	if in.IssueTypeID != "2" || in.ParentKey != "AI-7" {
		t.Errorf("input = %+v", in)
	}
	if len(ft.links) != 0 {
		t.Errorf("sub-task should not be linked, got %v", ft.links)
	}
}

func TestCommit_NonSubtaskLinksParent(t *testing.T) {
	ft := newFakeTracker()

	if _, err := Commit(context.Background(), ft, reviewed, Target{ProjectKey: "AI", IssueType: "Story", ParentKey: "AI-7"}, CommitOptions{}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if ft.created[0].ParentKey != "" {
		t.Error("parent field should not be sent for non-subtask types")
	}
	if len(ft.links) != 1 || ft.links[0] != [3]string{"Relates", "AI-9", "AI-7"} {
		t.Errorf("links = %v", ft.links)
	}
}

func TestCommit_LinkFailureIsNotFatal(t *testing.T) {
	ft := newFakeTracker()
	ft.linkErr = errors.New("no permission")

	created, err := Commit(context.Background(), ft, reviewed, Target{ProjectKey: "AI", IssueType: "Task", ParentKey: "AI-7"}, CommitOptions{LinkType: "Blocks"})
	if err != nil {
		t.Fatalf("Commit() error = %v, want link failure swallowed", err)
	}
	if created.Key != "AI-9" || ft.links[0][0] != "Blocks" {
		t.Errorf("created=%+v links=%v", created, ft.links)
	}
}

func TestCommit_UnknownIssueType(t *testing.T) {
	ft := newFakeTracker()

	_, err := Commit(context.Background(), ft, reviewed, Target{ProjectKey: "AI", IssueType: "Bug"}, CommitOptions{})
	if !errors.Is(err, ErrIssueTypeNotFound) {
		t.Errorf("Commit() error = %v, want ErrIssueTypeNotFound", err)
	}
	if len(ft.created) != 0 {
		t.Error("nothing should be created")
	}
}

func TestCommit_Validation(t *testing.T) {
	ft := newFakeTracker()

	if _, err := Commit(context.Background(), ft, &models.TicketRecord{Summary: "s"}, Target{ProjectKey: "AI"}, CommitOptions{}); err == nil {
		t.Error("incomplete record should be rejected")
	}
	if _, err := Commit(context.Background(), ft, reviewed, Target{}, CommitOptions{}); err == nil {
		t.Error("missing project should be rejected")
	}
}

func TestCommit_DefaultsToTask(t *testing.T) {
	ft := newFakeTracker()

	if _, err := Commit(context.Background(), ft, reviewed, Target{ProjectKey: "AI"}, CommitOptions{}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if ft.created[0].IssueTypeID != "1" {
		t.Errorf("IssueTypeID = %q, want Task", ft.created[0].IssueTypeID)
	}
}

func TestBuildInput(t *testing.T) {
	t.Run("basic fields only", func(t *testing.T) {
		in := BuildInput(reviewed, Target{ProjectKey: "AI", Assignee: "ann"}, "1", CommitOptions{})
		if in.Summary != reviewed.Summary || in.Description != reviewed.Description || in.Assignee != "ann" {
			t.Errorf("input = %+v", in)
		}
		if in.DueDate != "2024-06-01" {
			t.Errorf("DueDate = %q", in.DueDate)
		}
		if in.Priority != "" || in.Labels != nil || in.Components != nil {
			t.Errorf("extended fields should not be mapped: %+v", in)
		}
	})

	t.Run("extended fields", func(t *testing.T) {
		in := BuildInput(reviewed, Target{ProjectKey: "AI"}, "1", CommitOptions{MapExtendedFields: true})
		if in.Priority != "High" || len(in.Labels) != 2 || in.Labels[1] != "Technical" || len(in.Components) != 1 {
			t.Errorf("input = %+v", in)
		}
	})

	t.Run("labels with spaces are hyphenated", func(t *testing.T) {
		rec := *reviewed
		rec.Labels = "Data Pipeline, ai,  machine\tlearning , Data  Pipeline"
		in := BuildInput(&rec, Target{ProjectKey: "AI"}, "1", CommitOptions{MapExtendedFields: true})
		want := []string{"Data-Pipeline", "ai", "machine-learning"}
		if len(in.Labels) != len(want) {
			t.Fatalf("Labels = %q, want %q", in.Labels, want)
		}
		for i := range want {
			if in.Labels[i] != want[i] {
				t.Errorf("Labels[%d] = %q, want %q", i, in.Labels[i], want[i])
			}
		}
	})

	t.Run("unparsable due date is unset", func(t *testing.T) {
		rec := *reviewed
		rec.DueDate = "YYYY-MM-DD"
		in := BuildInput(&rec, Target{ProjectKey: "AI"}, "1", CommitOptions{})
		if in.DueDate != "" {
			t.Errorf("DueDate = %q, want unset", in.DueDate)
		}
	})
}

func TestIsSubtaskType(t *testing.T) {
	for name, want := range map[string]bool{"Sub-task": true, "subtask": true, " SUBTASK ": true, "Task": false, "Story": false} {
		if got := IsSubtaskType(name); got != want {
			t.Errorf("IsSubtaskType(%q) = %v, want %v", name, got, want)
		}
	}
}
