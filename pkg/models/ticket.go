package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the date format used by the start_date and due_date fields.
const DateLayout = "2006-01-02"

// Field names, as they appear in the generated markup.
const (
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldStartDate   = "start_date"
	FieldDueDate     = "due_date"
	FieldPriority    = "priority"
	FieldLabels      = "labels"
	FieldEpicLink    = "epic_link"
	FieldStoryPoints = "story_points"
	FieldComponents  = "components"
)

// FieldNames lists every recognized field in canonical order.
var FieldNames = []string{
	FieldSummary,
	FieldDescription,
	FieldStartDate,
	FieldDueDate,
	FieldPriority,
	FieldLabels,
	FieldEpicLink,
	FieldStoryPoints,
	FieldComponents,
}

// ErrEmptyInput is returned when a draft request has no free text.
var ErrEmptyInput = errors.New("requirement text is empty")

// DraftRequest is the input to the drafting step.
type DraftRequest struct {
	// Category drives emphasis in the instruction.
	Category Category `json:"category"`
	// FreeText is the prose describing the requirement.
	FreeText string `json:"free_text"`
}

// Validate checks the request before it is handed to a drafter.
// The drafter itself accepts anything; callers are expected to call this.
func (r DraftRequest) Validate() error {
	if strings.TrimSpace(r.FreeText) == "" {
		return ErrEmptyInput
	}
	if !r.Category.Valid() {
		return errors.New("unknown category: " + string(r.Category))
	}
	return nil
}

// TicketRecord is the structured ticket recovered from generated text.
// An empty string means the field was absent and must be treated as unset.
type TicketRecord struct {
	Summary     string `json:"summary" yaml:"summary"`
	Description string `json:"description" yaml:"description"`
	StartDate   string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	DueDate     string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Labels      string `json:"labels,omitempty" yaml:"labels,omitempty"`
	EpicLink    string `json:"epic_link,omitempty" yaml:"epic_link,omitempty"`
	StoryPoints string `json:"story_points,omitempty" yaml:"story_points,omitempty"`
	Components  string `json:"components,omitempty" yaml:"components,omitempty"`
}

// Get returns the value stored under a field name.
func (r *TicketRecord) Get(field string) string {
	if p := r.slot(field); p != nil {
		return *p
	}
	return ""
}

// Set stores a value under a field name. Unknown names are ignored.
func (r *TicketRecord) Set(field, value string) {
	if p := r.slot(field); p != nil {
		*p = value
	}
}

func (r *TicketRecord) slot(field string) *string {
	switch field {
	case FieldSummary:
		return &r.Summary
	case FieldDescription:
		return &r.Description
	case FieldStartDate:
		return &r.StartDate
	case FieldDueDate:
		return &r.DueDate
	case FieldPriority:
		return &r.Priority
	case FieldLabels:
		return &r.Labels
	case FieldEpicLink:
		return &r.EpicLink
	case FieldStoryPoints:
		return &r.StoryPoints
	case FieldComponents:
		return &r.Components
	default:
		return nil
	}
}

// Fields returns the present fields keyed by field name.
func (r *TicketRecord) Fields() map[string]string {
	out := make(map[string]string)
	for _, name := range FieldNames {
		if v := r.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// Complete reports whether both required fields are present.
func (r *TicketRecord) Complete() bool {
	return strings.TrimSpace(r.Summary) != "" && strings.TrimSpace(r.Description) != ""
}

// ParsedStartDate returns the start date, or false if absent or unparsable.
func (r *TicketRecord) ParsedStartDate() (time.Time, bool) {
	return ParseDate(r.StartDate)
}

// ParsedDueDate returns the due date, or false if absent or unparsable.
func (r *TicketRecord) ParsedDueDate() (time.Time, bool) {
	return ParseDate(r.DueDate)
}

// LabelList splits the comma-separated labels.
func (r *TicketRecord) LabelList() []string {
	return SplitList(r.Labels)
}

// ComponentList splits the comma-separated components.
func (r *TicketRecord) ComponentList() []string {
	return SplitList(r.Components)
}

// ParseDate parses a YYYY-MM-DD string. Anything else is treated as unset.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SplitList splits a comma-separated list, dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
