package models

import (
	"fmt"
	"strings"
)

// Category is the coarse classification of the input text. It only biases how
// the instruction is phrased; the output schema is the same for every category.
type Category string

const (
	// CategoryTechnical is for code, APIs and architecture material.
	CategoryTechnical Category = "Technical Task"
	// CategoryBusiness is for PRDs and stakeholder requirements.
	CategoryBusiness Category = "Business Requirement"
	// CategoryProcess is for workflow and operational changes.
	CategoryProcess Category = "Process Change"
)

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{CategoryTechnical, CategoryBusiness, CategoryProcess}
}

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBusiness, CategoryProcess:
		return true
	default:
		return false
	}
}

// Short returns the short name used on the command line.
func (c Category) Short() string {
	switch c {
	case CategoryTechnical:
		return "technical"
	case CategoryBusiness:
		return "business"
	case CategoryProcess:
		return "process"
	default:
		return string(c)
	}
}

// Next returns the category after c in display order, wrapping around.
func (c Category) Next() Category {
	all := Categories()
	for i, cat := range all {
		if cat == c {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// ParseCategory accepts either a short name (technical, business, process)
// or a display string, case-insensitively.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if needle == c.Short() || needle == strings.ToLower(string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want technical, business or process)", s)
}
