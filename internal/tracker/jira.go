package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var _ Tracker = (*Jira)(nil)

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("jira: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("jira: HTTP %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// JiraConfig configures a Jira client.
type JiraConfig struct {
	ServerURL  string
	Email      string
	APIToken   string
	HTTPClient *http.Client
}

// Jira talks to the Jira REST API v2 with basic auth (email + API token).
type Jira struct {
	base   string
	email  string
	token  string
	client *http.Client
}

// NewJira creates a Jira client.
func NewJira(cfg JiraConfig) (*Jira, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("jira: server url is required")
	}
	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("jira: parse server url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Jira{
		base:   strings.TrimRight(cfg.ServerURL, "/"),
		email:  cfg.Email,
		token:  cfg.APIToken,
		client: client,
	}, nil
}

// do sends a request and decodes a JSON response into out (if non-nil).
func (j *Jira) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := j.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jira: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("jira: create request: %w", err)
	}
	req.SetBasicAuth(j.email, j.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("jira: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jira: decode %s: %w", path, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Messages = append(apiErr.Messages, payload.ErrorMessages...)
		for field, msg := range payload.Errors {
			apiErr.Messages = append(apiErr.Messages, field+": "+msg)
		}
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Messages = []string{text}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	}
	return apiErr
}

// TestConnection lists projects and returns how many are visible.
func (j *Jira) TestConnection(ctx context.Context) (int, error) {
	projects, err := j.Projects(ctx)
	if err != nil {
		return 0, err
	}
	return len(projects), nil
}

// Projects lists the projects visible to the user.
func (j *Jira) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/project", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// IssueTypes lists the issue types that can be created in a project.
func (j *Jira) IssueTypes(ctx context.Context, projectKey string) ([]IssueType, error) {
	q := url.Values{}
	q.Set("projectKeys", projectKey)
	q.Set("expand", "projects.issuetypes")

	var meta struct {
		Projects []struct {
			Key        string      `json:"key"`
			IssueTypes []IssueType `json:"issuetypes"`
		} `json:"projects"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/issue/createmeta", q, nil, &meta); err != nil {
		return nil, err
	}
	if len(meta.Projects) == 0 {
		return nil, fmt.Errorf("jira: project %s: %w", projectKey, ErrNotFound)
	}
	return meta.Projects[0].IssueTypes, nil
}

// SearchUsers finds users matching query.
func (j *Jira) SearchUsers(ctx context.Context, query string) ([]User, error) {
	q := url.Values{}
	q.Set("query", query)

	var users []User
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/user/search", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchJQL builds the issue search query for a project, newest first,
// optionally filtered by a summary text match.
func SearchJQL(projectKey, query string) string {
	jql := "project = " + quoteJQL(projectKey)
	if query = strings.TrimSpace(query); query != "" {
		jql += " AND summary ~ " + quoteJQL(query)
	}
	return jql + " ORDER BY key DESC"
}

func quoteJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string  `json:"summary"`
		Description *string `json:"description"`
		IssueType   struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Created string `json:"created"`
		Updated string `json:"updated"`
		Parent  *struct {
			Key    string `json:"key"`
			Fields struct {
				Summary string `json:"summary"`
			} `json:"fields"`
		} `json:"parent"`
	} `json:"fields"`
}

// SearchIssues lists issues in a project that can serve as parents.
func (j *Jira) SearchIssues(ctx context.Context, projectKey, query string, limit int) ([]IssueSummary, error) {
	q := url.Values{}
	q.Set("jql", SearchJQL(projectKey, query))
	q.Set("fields", "summary,issuetype,status,created,updated")
	if limit > 0 {
		q.Set("maxResults", strconv.Itoa(limit))
	}

	var result struct {
		Issues []jiraIssue `json:"issues"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/search", q, nil, &result); err != nil {
		return nil, err
	}

	out := make([]IssueSummary, 0, len(result.Issues))
	for _, is := range result.Issues {
		out = append(out, IssueSummary{
			Key:     is.Key,
			Summary: is.Fields.Summary,
			Type:    is.Fields.IssueType.Name,
			Status:  is.Fields.Status.Name,
			Created: is.Fields.Created,
			Updated: is.Fields.Updated,
		})
	}
	return out, nil
}

// Issue fetches a single issue.
func (j *Jira) Issue(ctx context.Context, key string) (*Issue, error) {
	q := url.Values{}
	q.Set("fields", "summary,description,issuetype,status,parent")

	var is jiraIssue
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), q, nil, &is); err != nil {
		return nil, err
	}

	out := &Issue{
		Key:     is.Key,
		Summary: is.Fields.Summary,
		Type:    is.Fields.IssueType.Name,
		Status:  is.Fields.Status.Name,
	}
	if is.Fields.Description != nil {
		out.Description = *is.Fields.Description
	}
	if p := is.Fields.Parent; p != nil {
		out.Parent = &ParentRef{Key: p.Key, Summary: p.Fields.Summary}
	}
	return out, nil
}

// LinkTypes lists the configured issue link types.
func (j *Jira) LinkTypes(ctx context.Context) ([]LinkType, error) {
	var result struct {
		IssueLinkTypes []LinkType `json:"issueLinkTypes"`
	}
	if err := j.do(ctx, http.MethodGet, "/rest/api/2/issueLinkType", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.IssueLinkTypes, nil
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

// CreateIssue creates an issue from in.
func (j *Jira) CreateIssue(ctx context.Context, in IssueInput) (*CreatedIssue, error) {
	fields := map[string]any{
		"project":     keyRef{Key: in.ProjectKey},
		"summary":     in.Summary,
		"description": in.Description,
		"issuetype":   map[string]string{"id": in.IssueTypeID},
	}
	if in.ParentKey != "" {
		fields["parent"] = keyRef{Key: in.ParentKey}
	}
	if in.Assignee != "" {
		fields["assignee"] = nameRef{Name: in.Assignee}
	}
	if in.DueDate != "" {
		fields["duedate"] = in.DueDate
	}
	if in.Priority != "" {
		fields["priority"] = nameRef{Name: in.Priority}
	}
	if len(in.Labels) > 0 {
		fields["labels"] = in.Labels
	}
	if len(in.Components) > 0 {
		components := make([]nameRef, 0, len(in.Components))
		for _, c := range in.Components {
			components = append(components, nameRef{Name: c})
		}
		fields["components"] = components
	}

	var created CreatedIssue
	if err := j.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, map[string]any{"fields": fields}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// LinkIssues creates a link of the named type between two issues.
func (j *Jira) LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	body := map[string]any{
		"type":         nameRef{Name: linkType},
		"inwardIssue":  keyRef{Key: inwardKey},
		"outwardIssue": keyRef{Key: outwardKey},
	}
	return j.do(ctx, http.MethodPost, "/rest/api/2/issueLink", nil, body, nil)
}
