// Package extract converts parsed documents into typed records using
// declarative record specs.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/use-agent/harvest/models"
)

// Records finds every node matching the spec's container selector and
// evaluates the spec's fields within each node's subtree. A field whose
// selector matches nothing yields nil, not an error. Output order is
// document order.
//
// Records is pure: it performs no I/O, never mutates doc, and returns
// identical output for identical arguments. source and at become each
// record's provenance.
func Records(doc *goquery.Document, spec models.RecordSpec, source string, at time.Time) ([]models.Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(spec.Container).Each(func(_ int, container *goquery.Selection) {
		fields := make(map[string]any, len(spec.Fields))
		for _, f := range spec.Fields {
			fields[f.Name] = field(container, f)
		}
		records = append(records, models.Record{
			Fields:      fields,
			Source:      source,
			ExtractedAt: at,
		})
	})
	return records, nil
}

// field evaluates one FieldSpec against a container's subtree.
func field(container *goquery.Selection, f models.FieldSpec) any {
	sel := container
	if f.Selector != "" {
		sel = container.Find(f.Selector)
	}

	// Count is defined even for zero matches.
	if f.Transform == models.TransformCount {
		return sel.Length()
	}

	if sel.Length() == 0 {
		return nil
	}

	var raw string
	if f.Attr != "" {
		v, ok := sel.Attr(f.Attr)
		if !ok {
			return nil
		}
		raw = v
	} else {
		raw = strings.TrimSpace(sel.First().Text())
	}

	switch f.Transform {
	case models.TransformDate:
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			// Unparsable dates are missing values, never extraction
			// failures.
			return nil
		}
		return t.Format(time.RFC3339)
	default:
		return raw
	}
}
