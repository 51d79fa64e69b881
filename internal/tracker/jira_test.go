package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestJira(t *testing.T, mux *http.ServeMux) *Jira {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	j, err := NewJira(JiraConfig{ServerURL: srv.URL + "/", Email: "dev@example.com", APIToken: "tok"})
	if err != nil {
		t.Fatalf("NewJira() error = %v", err)
	}
	return j
}

func TestNewJira_RequiresURL(t *testing.T) {
	if _, err := NewJira(JiraConfig{}); err == nil {
		t.Error("NewJira() without server url should fail")
	}
}

func TestJira_Projects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/project", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "dev@example.com" || pass != "tok" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		fmt.Fprint(w, `[{"id":"1","key":"AI","name":"AI Pod"},{"id":"2","key":"OPS","name":"Operations"}]`)
	})
	j := newTestJira(t, mux)

	projects, err := j.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 2 || projects[0].Key != "AI" || projects[1].Name != "Operations" {
		t.Errorf("Projects() = %+v", projects)
	}

	n, err := j.TestConnection(context.Background())
	if err != nil || n != 2 {
		t.Errorf("TestConnection() = %d, %v", n, err)
	}
}

func TestJira_IssueTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/issue/createmeta", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("projectKeys"); got != "AI" {
			t.Errorf("projectKeys = %q", got)
		}
		if got := r.URL.Query().Get("expand"); got != "projects.issuetypes" {
			t.Errorf("expand = %q", got)
		}
		fmt.Fprint(w, `{"projects":[{"key":"AI","issuetypes":[{"id":"10001","name":"Task","subtask":false},{"id":"10002","name":"Sub-task","subtask":true}]}]}`)
	})
	j := newTestJira(t, mux)

	types, err := j.IssueTypes(context.Background(), "AI")
	if err != nil {
		t.Fatalf("IssueTypes() error = %v", err)
	}
	if len(types) != 2 || types[0].ID != "10001" || !types[1].Subtask {
		t.Errorf("IssueTypes() = %+v", types)
	}
}

func TestJira_IssueTypes_UnknownProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/issue/createmeta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"projects":[]}`)
	})
	j := newTestJira(t, mux)

	if _, err := j.IssueTypes(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("IssueTypes() error = %v, want ErrNotFound", err)
	}
}

func TestSearchJQL(t *testing.T) {
	tests := []struct {
		project, query, want string
	}{
		{"AI", "", `project = "AI" ORDER BY key DESC`},
		{"AI", "  login ", `project = "AI" AND summary ~ "login" ORDER BY key DESC`},
		{"AI", `say "hi"`, `project = "AI" AND summary ~ "say \"hi\"" ORDER BY key DESC`},
	}

	for _, tt := range tests {
		if got := SearchJQL(tt.project, tt.query); got != tt.want {
			t.Errorf("SearchJQL(%q, %q) = %s, want %s", tt.project, tt.query, got, tt.want)
		}
	}
}

func TestJira_SearchIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("jql") != `project = "AI" AND summary ~ "login" ORDER BY key DESC` {
			t.Errorf("jql = %q", q.Get("jql"))
		}
		if q.Get("maxResults") != "50" {
			t.Errorf("maxResults = %q", q.Get("maxResults"))
		}
		fmt.Fprint(w, `{"issues":[{"key":"AI-7","fields":{"summary":"Login epic","issuetype":{"name":"Epic"},"status":{"name":"Open"},"created":"2024-01-01T00:00:00.000+0000","updated":"2024-01-02T00:00:00.000+0000"}}]}`)
	})
	j := newTestJira(t, mux)

	issues, err := j.SearchIssues(context.Background(), "AI", "login", 50)
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	want := IssueSummary{Key: "AI-7", Summary: "Login epic", Type: "Epic", Status: "Open", Created: "2024-01-01T00:00:00.000+0000", Updated: "2024-01-02T00:00:00.000+0000"}
	if len(issues) != 1 || issues[0] != want {
		t.Errorf("SearchIssues() = %+v", issues)
	}
}

func TestJira_Issue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/issue/AI-8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"key":"AI-8","fields":{"summary":"Child","description":"body","issuetype":{"name":"Sub-task"},"status":{"name":"In Progress"},"parent":{"key":"AI-7","fields":{"summary":"Login epic"}}}}`)
	})
	mux.HandleFunc("GET /rest/api/2/issue/AI-9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"key":"AI-9","fields":{"summary":"Orphan","description":null,"issuetype":{"name":"Task"},"status":{"name":"Open"}}}`)
	})
	mux.HandleFunc("GET /rest/api/2/issue/AI-404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorMessages":["Issue does not exist or you do not have permission to see it."],"errors":{}}`)
	})
	j := newTestJira(t, mux)

	issue, err := j.Issue(context.Background(), "AI-8")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if issue.Description != "body" || issue.Parent == nil || issue.Parent.Key != "AI-7" || issue.Parent.Summary != "Login epic" {
		t.Errorf("Issue() = %+v", issue)
	}

	orphan, err := j.Issue(context.Background(), "AI-9")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if orphan.Parent != nil || orphan.Description != "" {
		t.Errorf("Issue() = %+v", orphan)
	}

	_, err = j.Issue(context.Background(), "AI-404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Issue() error = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 || len(apiErr.Messages) != 1 {
		t.Errorf("Issue() error = %#v, want *APIError with message", err)
	}
}

func TestJira_SearchUsersAndLinkTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/user/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "ann" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		fmt.Fprint(w, `[{"name":"ann","displayName":"Ann Lee","accountId":"abc"}]`)
	})
	mux.HandleFunc("GET /rest/api/2/issueLinkType", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"issueLinkTypes":[{"id":"1","name":"Relates","inward":"relates to","outward":"relates to"}]}`)
	})
	j := newTestJira(t, mux)

	users, err := j.SearchUsers(context.Background(), "ann")
	if err != nil || len(users) != 1 || users[0].DisplayName != "Ann Lee" {
		t.Errorf("SearchUsers() = %+v, %v", users, err)
	}

	types, err := j.LinkTypes(context.Background())
	if err != nil || len(types) != 1 || types[0].Inward != "relates to" {
		t.Errorf("LinkTypes() = %+v, %v", types, err)
	}
}

func TestJira_CreateIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("missing content type")
		}
		var body struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := map[string]string{
			"project":    `{"key":"AI"}`,
			"summary":    `"Fix login"`,
			"issuetype":  `{"id":"10002"}`,
			"parent":     `{"key":"AI-7"}`,
			"assignee":   `{"name":"ann"}`,
			"duedate":    `"2024-06-01"`,
			"labels":     `["AI","Technical"]`,
			"components": `[{"name":"auth"}]`,
		}
		for field, raw := range want {
			if got := string(body.Fields[field]); got != raw {
				t.Errorf("fields.%s = %s, want %s", field, got, raw)
			}
		}
		if _, ok := body.Fields["priority"]; ok {
			t.Error("empty priority should not be sent")
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"100","key":"AI-8","self":"https://jira/rest/api/2/issue/100"}`)
	})
	j := newTestJira(t, mux)

	created, err := j.CreateIssue(context.Background(), IssueInput{
		ProjectKey:  "AI",
		IssueTypeID: "10002",
		Summary:     "Fix login",
		Description: "body",
		Assignee:    "ann",
		ParentKey:   "AI-7",
		DueDate:     "2024-06-01",
		Labels:      []string{"AI", "Technical"},
		Components:  []string{"auth"},
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if created.Key != "AI-8" || created.ID != "100" {
		t.Errorf("CreateIssue() = %+v", created)
	}
}

func TestJira_CreateIssue_ValidationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errorMessages":[],"errors":{"duedate":"Field 'duedate' cannot be set."}}`)
	})
	j := newTestJira(t, mux)

	_, err := j.CreateIssue(context.Background(), IssueInput{ProjectKey: "AI", IssueTypeID: "1", Summary: "s", Description: "d"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateIssue() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 400 || len(apiErr.Messages) != 1 || apiErr.Messages[0] != "duedate: Field 'duedate' cannot be set." {
		t.Errorf("APIError = %+v", apiErr)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("400 should not be ErrNotFound")
	}
}

func TestJira_LinkIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/api/2/issueLink", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type         struct{ Name string } `json:"type"`
			InwardIssue  struct{ Key string }  `json:"inwardIssue"`
			OutwardIssue struct{ Key string }  `json:"outwardIssue"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Type.Name != "Relates" || body.InwardIssue.Key != "AI-8" || body.OutwardIssue.Key != "AI-7" {
			t.Errorf("link body = %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
	})
	j := newTestJira(t, mux)

	if err := j.LinkIssues(context.Background(), "Relates", "AI-8", "AI-7"); err != nil {
		t.Errorf("LinkIssues() error = %v", err)
	}
}
