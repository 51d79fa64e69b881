// Package render writes a TicketRecord for humans or other programs.
// Only present fields are written.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/ticketsmith/internal/extract"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// Format selects an output encoding.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatMarkup Format = "markup"
)

// Formats lists the accepted --format values.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatMarkup}
}

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want text, json, yaml or markup)", s)
}

// Write renders rec in the given format.
func Write(w io.Writer, f Format, rec *models.TicketRecord) error {
	switch f {
	case FormatJSON:
		return JSON(w, rec)
	case FormatYAML:
		return YAML(w, rec)
	case FormatMarkup:
		return Markup(w, rec)
	default:
		return Text(w, rec)
	}
}

var labels = map[string]string{
	models.FieldSummary:     "Summary",
	models.FieldDescription: "Description",
	models.FieldStartDate:   "Start date",
	models.FieldDueDate:     "Due date",
	models.FieldPriority:    "Priority",
	models.FieldLabels:      "Labels",
	models.FieldEpicLink:    "Epic link",
	models.FieldStoryPoints: "Story points",
	models.FieldComponents:  "Components",
}

// Label returns the display name of a field.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// Text writes a readable listing. The description is printed last as an
// indented block since it is usually multi-line.
func Text(w io.Writer, rec *models.TicketRecord) error {
	heading := color.New(color.FgCyan, color.Bold)
	fields := rec.Fields()

	var b strings.Builder
	for _, name := range models.FieldNames {
		v, ok := fields[name]
		if !ok || name == models.FieldDescription {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", heading.Sprintf("%-13s", Label(name)+":"), v)
	}
	if desc, ok := fields[models.FieldDescription]; ok {
		fmt.Fprintf(&b, "\n%s\n", heading.Sprint(Label(models.FieldDescription)+":"))
		for _, line := range strings.Split(desc, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			b.WriteString("  " + line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// JSON writes rec as indented JSON.
func JSON(w io.Writer, rec *models.TicketRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// YAML writes rec as a YAML document.
func YAML(w io.Writer, rec *models.TicketRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Markup writes rec back in the tag-delimited form the extractor reads.
func Markup(w io.Writer, rec *models.TicketRecord) error {
	fields := rec.Fields()

	var b strings.Builder
	b.WriteString("<" + extract.RootTag + ">\n")
	for _, name := range models.FieldNames {
		if v, ok := fields[name]; ok {
			fmt.Fprintf(&b, "<%s>%s</%s>\n", name, v, name)
		}
	}
	b.WriteString("</" + extract.RootTag + ">\n")

	_, err := io.WriteString(w, b.String())
	return err
}
