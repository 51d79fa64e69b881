package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// rawPreviewLines caps how much raw model output the failed view shows.
const rawPreviewLines = 20

// pickerIndent lines picker notes up under the field values.
var pickerIndent = strings.Repeat(" ", 14)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("39")).
			Padding(0, 1)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(13)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("39")).
				Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	rawStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ticketsmith") + " " + stateStyle.Render(string(m.session.State)) + "\n\n")

	switch m.session.State {
	case models.StateIdle:
		b.WriteString(m.viewIdle())
	case models.StateDrafting:
		b.WriteString(m.viewDrafting())
	case models.StateReview:
		b.WriteString(m.viewReview())
	case models.StateFailed:
		b.WriteString(m.viewFailed())
	case models.StateCommitted:
		b.WriteString(m.viewCommitted())
	}

	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render(m.hints()) + "\n")
	return b.String()
}

func (m *Model) viewIdle() string {
	var b strings.Builder
	b.WriteString("Input type: ")
	for i, c := range models.Categories() {
		if i > 0 {
			b.WriteString(hintStyle.Render(" | "))
		}
		if c == m.category {
			b.WriteString(categoryStyle.Render("[" + string(c) + "]"))
		} else {
			b.WriteString(hintStyle.Render(string(c)))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(m.input.View()))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewDrafting() string {
	return fmt.Sprintf("%s Drafting %s ticket... %d characters received\n",
		m.spinner.View(), categoryStyle.Render(string(m.session.Request.Category)), m.received)
}

func (m *Model) viewReview() string {
	var b strings.Builder
	rec := m.session.Record
	for i := 0; i < fieldCount; i++ {
		label := labelStyle
		if i == m.form.focus {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[i]+":") + " ")
		if i == fieldDescription {
			b.WriteString("\n" + boxStyle.Render(m.form.desc.View()) + "\n")
			continue
		}
		b.WriteString(m.form.inputs[i].View() + "\n")
		if p := m.form.pickers[i]; p != nil {
			if st := p.status(); st != "" {
				b.WriteString(pickerIndent + hintStyle.Render(st) + "\n")
			}
		}
		if i == fieldParent {
			if note := m.parentNote(); note != "" {
				b.WriteString(pickerIndent + note + "\n")
			}
		}
	}

	// Fields the form does not edit are still shown so nothing is hidden.
	var extra []string
	for _, name := range []string{models.FieldStartDate, models.FieldPriority, models.FieldLabels,
		models.FieldEpicLink, models.FieldStoryPoints, models.FieldComponents} {
		if v := rec.Get(name); v != "" {
			extra = append(extra, fmt.Sprintf("%s: %s", name, v))
		}
	}
	if len(extra) > 0 {
		b.WriteString("\n" + hintStyle.Render(strings.Join(extra, "  ")) + "\n")
	}
	return b.String()
}

// parentNote previews the chosen parent and says how the new issue will
// relate to it.
func (m *Model) parentNote() string {
	f := m.form
	if f.previewKey == "" {
		return ""
	}
	if f.previewErr != nil {
		return errorStyle.Render(fmt.Sprintf("%s: %v", f.previewKey, f.previewErr))
	}
	if f.preview == nil {
		return hintStyle.Render("loading " + f.previewKey + "...")
	}

	p := f.preview
	line := fmt.Sprintf("%s [%s, %s] %s", p.Key, p.Type, p.Status, truncate(p.Summary, summaryPreviewLen))
	if tracker.IsSubtaskType(f.value(fieldIssueType)) {
		line += " (created as its sub-task)"
	} else {
		linkType := m.cfg.Commit.LinkType
		if linkType == "" {
			linkType = tracker.DefaultLinkType
		}
		line += fmt.Sprintf(" (linked as %q)", linkType)
	}
	return rawStyle.Render(line)
}

func (m *Model) viewFailed() string {
	var b strings.Builder
	kind := "Draft failed"
	switch {
	case pipeline.IsGenerationFailure(m.session.Err):
		kind = "Generation failed"
	case pipeline.IsExtractionFailure(m.session.Err):
		kind = "Could not read a ticket from the output"
	}
	b.WriteString(errorStyle.Render(kind) + "\n")
	if m.session.Err != nil {
		b.WriteString(m.session.Err.Error() + "\n")
	}
	if m.session.Raw != "" {
		lines := strings.Split(m.session.Raw, "\n")
		if len(lines) > rawPreviewLines {
			lines = append(lines[:rawPreviewLines], fmt.Sprintf("... (%d more lines)", len(lines)-rawPreviewLines))
		}
		b.WriteString("\nRaw output:\n" + boxStyle.Render(rawStyle.Render(strings.Join(lines, "\n"))) + "\n")
	}
	return b.String()
}

func (m *Model) viewCommitted() string {
	line := successStyle.Render("Created " + m.session.IssueKey)
	if m.cfg.ServerURL != "" {
		line += "  " + strings.TrimRight(m.cfg.ServerURL, "/") + "/browse/" + m.session.IssueKey
	}
	return line + "\n"
}

func (m *Model) hints() string {
	switch m.session.State {
	case models.StateIdle:
		return "ctrl+t category • ctrl+g draft • ctrl+c quit"
	case models.StateDrafting:
		return "esc cancel • ctrl+c quit"
	case models.StateReview:
		return "tab/shift+tab move • ↑/↓ choose • ctrl+s create • ctrl+r discard • ctrl+c quit"
	default:
		return "any key to continue • ctrl+c quit"
	}
}
