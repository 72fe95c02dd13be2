package models

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Transform is an optional post-processing step applied to a field's raw
// extracted value.
type Transform string

const (
	// TransformNone stores the element's trimmed text (or attribute).
	TransformNone Transform = ""

	// TransformDate parses the text as a date (flexible formats) and
	// stores it as RFC 3339. Unparsable text stores nil, not an error.
	TransformDate Transform = "date"

	// TransformCount stores the number of nodes matching the field
	// selector as an int. Zero matches stores 0, not nil.
	TransformCount Transform = "count"
)

// FieldSpec describes how to extract one field from a record container's
// subtree.
type FieldSpec struct {
	// Name is the output column name.
	Name string

	// Selector is a CSS selector evaluated within the container. Empty
	// means the container node itself (used for container attributes).
	Selector string

	// Attr, when set, extracts the named attribute instead of text.
	Attr string

	// Transform is the optional value transform.
	Transform Transform

	// ResolveURL marks the field as a URL to be resolved against the
	// page's base URL before the record is stored. Resolution is the
	// orchestrator's job, not the extractor's.
	ResolveURL bool
}

// RecordSpec describes how to extract a sequence of records from a
// document: a container selector identifying one repeating block per
// record, and an ordered field list evaluated within each block.
type RecordSpec struct {
	Container string
	Fields    []FieldSpec
}

// Validate checks every selector in the spec parses. A malformed
// container or field selector is a configuration error, reported as
// ErrCodeSpec and never retried.
func (s RecordSpec) Validate() error {
	if s.Container == "" {
		return NewScrapeError(ErrCodeSpec, "record spec has no container selector", nil)
	}
	if _, err := cascadia.Parse(s.Container); err != nil {
		return NewScrapeError(ErrCodeSpec,
			fmt.Sprintf("malformed container selector %q", s.Container), err)
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return NewScrapeError(ErrCodeSpec, "field spec has no name", nil)
		}
		if f.Selector == "" {
			continue // container node itself
		}
		if _, err := cascadia.Parse(f.Selector); err != nil {
			return NewScrapeError(ErrCodeSpec,
				fmt.Sprintf("malformed selector %q for field %q", f.Selector, f.Name), err)
		}
	}
	return nil
}

// FieldNames returns the output column names in spec order.
func (s RecordSpec) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
