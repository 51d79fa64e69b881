// Package extract recovers a TicketRecord from generated ticket markup.
//
// Each field is searched for independently as <name>...</name>, so the
// root wrapper is optional, field order does not matter, and the first
// occurrence of a tag wins. Tag names are matched exactly: a tag carrying
// attributes, inner whitespace or a different case is not recognized.
// A closing tag that appears inside a field's content ends that field early.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// RootTag wraps the generated ticket. It is not required for extraction.
const RootTag = "jira_ticket"

var fieldPatterns = compileFieldPatterns(models.FieldNames)

func compileFieldPatterns(names []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(names))
	for _, name := range names {
		quoted := regexp.QuoteMeta(name)
		patterns[name] = regexp.MustCompile(`(?s)<` + quoted + `>(.*?)</` + quoted + `>`)
	}
	return patterns
}

// Error reports generated text that lacks a usable summary or description.
// Raw is kept so callers can show the model output for inspection.
type Error struct {
	Raw     string
	Missing []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract ticket: missing required field(s): %s", strings.Join(e.Missing, ", "))
}

// Field returns the trimmed content of the first <name>...</name> in raw.
func Field(raw, name string) (string, bool) {
	re, ok := fieldPatterns[name]
	if !ok {
		quoted := regexp.QuoteMeta(name)
		re = regexp.MustCompile(`(?s)<` + quoted + `>(.*?)</` + quoted + `>`)
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Extract parses raw into a TicketRecord. Optional fields that are missing
// are left empty. If summary or description is missing or empty the result
// is nil and the error is an *Error.
func Extract(raw string) (*models.TicketRecord, error) {
	rec := &models.TicketRecord{}
	for _, name := range models.FieldNames {
		if v, ok := Field(raw, name); ok {
			rec.Set(name, v)
		}
	}

	var missing []string
	if rec.Summary == "" {
		missing = append(missing, models.FieldSummary)
	}
	if rec.Description == "" {
		missing = append(missing, models.FieldDescription)
	}
	if len(missing) > 0 {
		return nil, &Error{Raw: raw, Missing: missing}
	}
	return rec, nil
}
