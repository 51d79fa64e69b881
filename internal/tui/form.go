package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// Review form fields in tab order.
const (
	fieldSummary = iota
	fieldDescription
	fieldDueDate
	fieldProject
	fieldIssueType
	fieldAssignee
	fieldParent
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Summary",
	"Description",
	"Due date",
	"Project",
	"Issue type",
	"Assignee",
	"Parent",
}

// reviewForm edits a drafted ticket and where it should be created.
// The description gets a textarea; everything else is a single line.
// The target fields also carry a picker fed from the tracker.
type reviewForm struct {
	inputs  [fieldCount]textinput.Model
	desc    textarea.Model
	pickers [fieldCount]*picker
	focus   int

	// loadedProject is the project the issue type and parent choices
	// belong to.
	loadedProject string
	previewKey    string
	preview       *tracker.Issue
	previewErr    error
}

func newReviewForm(rec *models.TicketRecord, defaults tracker.Target) *reviewForm {
	f := &reviewForm{}
	values := [fieldCount]string{
		fieldSummary:   rec.Summary,
		fieldDueDate:   rec.DueDate,
		fieldProject:   defaults.ProjectKey,
		fieldIssueType: defaults.IssueType,
		fieldAssignee:  defaults.Assignee,
		fieldParent:    defaults.ParentKey,
	}
	for i := range f.inputs {
		if i == fieldDescription {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 255
		ti.Width = 60
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldDueDate].Placeholder = models.DateLayout
	f.inputs[fieldProject].Placeholder = "KEY"
	f.inputs[fieldIssueType].Placeholder = "Task"
	f.inputs[fieldParent].Placeholder = "KEY-123"

	for _, i := range []int{fieldProject, fieldIssueType, fieldAssignee, fieldParent} {
		f.pickers[i] = newPicker()
	}

	f.desc = textarea.New()
	f.desc.ShowLineNumbers = false
	f.desc.CharLimit = 0
	f.desc.SetWidth(80)
	f.desc.SetHeight(12)
	f.desc.SetValue(rec.Description)

	f.setFocus(fieldSummary)
	return f
}

func (f *reviewForm) setFocus(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	f.desc.Blur()
	for j := range f.inputs {
		if j != fieldDescription {
			f.inputs[j].Blur()
		}
	}
	if f.focus == fieldDescription {
		return f.desc.Focus()
	}
	return f.inputs[f.focus].Focus()
}

func (f *reviewForm) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *reviewForm) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

func (f *reviewForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == fieldDescription {
		f.desc, cmd = f.desc.Update(msg)
	} else {
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		if p := f.pickers[f.focus]; p != nil {
			p.sync(f.value(f.focus))
		}
	}
	return cmd
}

// setValue replaces a single-line field and moves its cursor to the end.
func (f *reviewForm) setValue(i int, v string) {
	f.inputs[i].SetValue(v)
	f.inputs[i].CursorEnd()
	if p := f.pickers[i]; p != nil {
		p.sync(v)
	}
}

func (f *reviewForm) projectKey() string {
	return strings.ToUpper(f.value(fieldProject))
}

func (f *reviewForm) parentKey() string {
	return strings.ToUpper(f.value(fieldParent))
}

func (f *reviewForm) value(i int) string {
	if i == fieldDescription {
		return strings.TrimSpace(f.desc.Value())
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

// apply copies the edits onto a copy of rec and returns the chosen target.
func (f *reviewForm) apply(rec *models.TicketRecord) (*models.TicketRecord, tracker.Target) {
	out := *rec
	out.Summary = f.value(fieldSummary)
	out.Description = f.value(fieldDescription)
	out.DueDate = f.value(fieldDueDate)

	target := tracker.Target{
		ProjectKey: f.projectKey(),
		IssueType:  f.value(fieldIssueType),
		Assignee:   f.value(fieldAssignee),
		ParentKey:  f.parentKey(),
	}
	return &out, target
}

func (f *reviewForm) setWidth(width int) {
	w := width - 20
	if w < 20 {
		w = 20
	}
	for i := range f.inputs {
		if i != fieldDescription {
			f.inputs[i].Width = w
		}
	}
	f.desc.SetWidth(w)
}
