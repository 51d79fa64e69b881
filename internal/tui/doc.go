// Package tui is the interactive drafting shell.
//
// The model follows a pipeline.Session through its states:
//
//	idle      pick a category (ctrl+t), type the requirement, ctrl+g to draft
//	drafting  spinner and streamed character count; esc cancels
//	review    edit the ticket and its target; ctrl+s creates it, ctrl+r discards
//	failed    the error and any raw output; any key returns to idle
//	committed the created issue key; any key starts a new ticket
//
// Usage:
//
//	m := tui.New(tui.Config{NewRunner: newRunner, Tracker: jira})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package tui
