package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// loadTargets starts the listings the review form offers: projects, then
// issue types and candidate parents of the prefilled project.
func (m *Model) loadTargets() tea.Cmd {
	if m.cfg.Tracker == nil || m.form == nil {
		return nil
	}
	m.form.pickers[fieldProject].loading = true
	return tea.Batch(loadProjects(m.cfg.Tracker), m.syncLookups())
}

// syncLookups reloads project-scoped choices once the project changes and
// fetches a preview once the parent changes.
func (m *Model) syncLookups() tea.Cmd {
	f := m.form
	if m.cfg.Tracker == nil || f == nil {
		return nil
	}

	var cmds []tea.Cmd
	if project := f.projectKey(); project != f.loadedProject {
		f.loadedProject = project
		types, parents := f.pickers[fieldIssueType], f.pickers[fieldParent]
		if project == "" {
			types.clear()
			parents.clear()
		} else {
			types.loading, parents.loading = true, true
			cmds = append(cmds, loadIssueTypes(m.cfg.Tracker, project), loadParents(m.cfg.Tracker, project))
		}
	}
	if parent := f.parentKey(); parent != f.previewKey {
		f.previewKey = parent
		f.preview, f.previewErr = nil, nil
		if parent != "" {
			cmds = append(cmds, fetchParent(m.cfg.Tracker, parent))
		}
	}
	return tea.Batch(cmds...)
}

// choose handles up and down on a target field. On the assignee field new
// text is searched for first; after that the matches are cycled.
func (m *Model) choose(field, delta int) tea.Cmd {
	f := m.form
	p := f.pickers[field]
	value := f.value(field)

	if field == fieldAssignee && m.cfg.Tracker != nil && value != "" &&
		value != p.query && p.indexOf(value) < 0 {
		p.query, p.loading, p.err = value, true, nil
		return searchUsers(m.cfg.Tracker, value)
	}

	opt, ok := p.step(value, delta)
	if !ok {
		return nil
	}
	f.setValue(field, opt.value)
	return m.syncLookups()
}

func (m *Model) applyLookup(msg tea.Msg) tea.Cmd {
	f := m.form
	if f == nil || m.session.State != models.StateReview {
		return nil
	}

	switch msg := msg.(type) {
	case projectsMsg:
		p := f.pickers[fieldProject]
		p.set(projectOptions(msg.projects), msg.err)
		if msg.err != nil {
			m.logger.Warn("list projects", "error", msg.err)
			return nil
		}
		if f.value(fieldProject) == "" && len(p.options) > 0 {
			f.setValue(fieldProject, p.options[0].value)
			return m.syncLookups()
		}
		p.sync(f.value(fieldProject))

	case issueTypesMsg:
		if msg.project != f.loadedProject {
			return nil
		}
		p := f.pickers[fieldIssueType]
		p.set(issueTypeOptions(msg.types), msg.err)
		if msg.err != nil {
			m.logger.Warn("list issue types", "project", msg.project, "error", msg.err)
			return nil
		}
		// A type the project does not offer falls back to its first one.
		if p.indexOf(f.value(fieldIssueType)) < 0 && len(p.options) > 0 {
			f.setValue(fieldIssueType, p.options[0].value)
		}
		p.sync(f.value(fieldIssueType))

	case parentsMsg:
		if msg.project != f.loadedProject {
			return nil
		}
		p := f.pickers[fieldParent]
		p.set(parentOptions(msg.issues), msg.err)
		if msg.err != nil {
			m.logger.Warn("search parent issues", "project", msg.project, "error", msg.err)
			return nil
		}
		p.sync(f.value(fieldParent))

	case usersMsg:
		p := f.pickers[fieldAssignee]
		if msg.query != p.query {
			return nil
		}
		p.set(userOptions(msg.users), msg.err)
		if msg.err != nil {
			m.logger.Warn("search users", "query", msg.query, "error", msg.err)
			p.query = ""
			return nil
		}
		if len(p.options) > 0 && strings.EqualFold(f.value(fieldAssignee), msg.query) {
			f.setValue(fieldAssignee, p.options[0].value)
		}

	case parentPreviewMsg:
		if msg.key != f.previewKey {
			return nil
		}
		f.preview, f.previewErr = msg.issue, msg.err
	}
	return nil
}
