package models

import "time"

// GrowthSignal is an opaque, comparable measurement of rendered content
// size (document scroll height in the rod driver). Two equal consecutive
// readings mean "no new content appeared".
type GrowthSignal int64

// Record is one extracted record: a field-name to value mapping plus
// provenance. Values are string, int, or nil (selector matched nothing).
// A Record is never mutated after the extractor returns it.
type Record struct {
	// Fields maps field names from the RecordSpec to extracted values.
	Fields map[string]any

	// Source is the page URL (static feed) or session URL (dynamic feed)
	// the record was extracted from.
	Source string

	// ExtractedAt is the UTC extraction timestamp. Within one run it is
	// monotonically non-decreasing across records.
	ExtractedAt time.Time
}

// Get returns the value of the named field, or nil when the field is
// absent or matched nothing.
func (r Record) Get(name string) any {
	return r.Fields[name]
}

// Str returns the string value of the named field, or "" for nil or
// non-string values.
func (r Record) Str(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}
