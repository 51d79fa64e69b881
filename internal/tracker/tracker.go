// Package tracker is the issue-tracker collaborator: listing projects,
// issue types, users and issues, and creating the reviewed ticket.
package tracker

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the tracker has no such issue or project.
var ErrNotFound = errors.New("not found")

// Project is a tracker project.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueType is an issue type available in a project.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// User is a user search result.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	AccountID   string `json:"accountId,omitempty"`
}

// IssueSummary is an issue search result.
type IssueSummary struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// ParentRef is the parent of an issue, when it has one.
type ParentRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// Issue is a single fetched issue.
type Issue struct {
	Key         string     `json:"key"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Parent      *ParentRef `json:"parent,omitempty"`
}

// LinkType is an issue link type.
type LinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// IssueInput is everything needed to create an issue.
// Empty optional fields are not sent.
type IssueInput struct {
	ProjectKey  string
	IssueTypeID string
	Summary     string
	Description string
	Assignee    string
	ParentKey   string
	DueDate     string
	Priority    string
	Labels      []string
	Components  []string
}

// CreatedIssue identifies a newly created issue.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Tracker is the issue-tracker surface used by the CLI and TUI.
type Tracker interface {
	TestConnection(ctx context.Context) (int, error)
	Projects(ctx context.Context) ([]Project, error)
	IssueTypes(ctx context.Context, projectKey string) ([]IssueType, error)
	SearchUsers(ctx context.Context, query string) ([]User, error)
	SearchIssues(ctx context.Context, projectKey, query string, limit int) ([]IssueSummary, error)
	Issue(ctx context.Context, key string) (*Issue, error)
	LinkTypes(ctx context.Context) ([]LinkType, error)
	CreateIssue(ctx context.Context, in IssueInput) (*CreatedIssue, error)
	LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error
}
