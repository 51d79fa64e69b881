package tui

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/ticketsmith/internal/tracker"
)

// summaryPreviewLen truncates issue summaries in the parent picker.
const summaryPreviewLen = 60

type option struct {
	value string
	label string
}

// picker offers tracker choices for one target field. The field stays
// editable; up and down replace its text with the previous or next choice.
type picker struct {
	options  []option
	selected int
	loading  bool
	loaded   bool
	err      error
	// query is the text the options were searched for, when they come
	// from a search rather than a listing.
	query string
}

func newPicker() *picker {
	return &picker{selected: -1}
}

func (p *picker) set(options []option, err error) {
	p.options, p.err = options, err
	p.loading = false
	p.loaded = err == nil
	p.selected = -1
}

func (p *picker) clear() {
	p.set(nil, nil)
	p.loaded = false
}

func (p *picker) indexOf(value string) int {
	for i, o := range p.options {
		if strings.EqualFold(o.value, value) {
			return i
		}
	}
	return -1
}

// step moves delta places from current, wrapping around. A value that is
// not one of the options starts from before the first (or after the last).
func (p *picker) step(current string, delta int) (option, bool) {
	n := len(p.options)
	if n == 0 {
		return option{}, false
	}
	i := p.indexOf(current)
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = n - 1
	default:
		i = ((i+delta)%n + n) % n
	}
	p.selected = i
	return p.options[i], true
}

// sync keeps the selection pointing at value, or at nothing once the text
// was edited away from every option.
func (p *picker) sync(value string) {
	p.selected = p.indexOf(value)
}

func (p *picker) status() string {
	switch {
	case p.loading:
		return "loading..."
	case p.err != nil:
		return "lookup failed: " + p.err.Error()
	case p.loaded && len(p.options) == 0:
		return "no matches"
	case len(p.options) == 0:
		return ""
	case p.selected >= 0:
		return fmt.Sprintf("%d/%d %s", p.selected+1, len(p.options), p.options[p.selected].label)
	default:
		return fmt.Sprintf("↑/↓ %d choices", len(p.options))
	}
}

func projectOptions(projects []tracker.Project) []option {
	out := make([]option, 0, len(projects))
	for _, p := range projects {
		out = append(out, option{value: p.Key, label: p.Key + " - " + p.Name})
	}
	return out
}

func issueTypeOptions(types []tracker.IssueType) []option {
	out := make([]option, 0, len(types))
	for _, t := range types {
		label := t.Name
		if t.Subtask {
			label += " (sub-task)"
		}
		out = append(out, option{value: t.Name, label: label})
	}
	return out
}

func userOptions(users []tracker.User) []option {
	out := make([]option, 0, len(users))
	for _, u := range users {
		out = append(out, option{value: u.Name, label: u.DisplayName + " (" + u.Name + ")"})
	}
	return out
}

// parentOptions starts with an empty choice so the parent can be cleared
// by cycling.
func parentOptions(issues []tracker.IssueSummary) []option {
	out := make([]option, 0, len(issues)+1)
	out = append(out, option{value: "", label: "No parent"})
	for _, is := range issues {
		out = append(out, option{
			value: is.Key,
			label: fmt.Sprintf("%s - %s - %s: %s", is.Key, is.Type, is.Status, truncate(is.Summary, summaryPreviewLen)),
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
