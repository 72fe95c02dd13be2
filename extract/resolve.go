package extract

import (
	"net/url"

	"github.com/use-agent/harvest/models"
)

// ResolveURLFields rewrites every ResolveURL-marked field to an absolute
// URL resolved against base. Already-absolute values pass through
// unchanged; values that fail to parse are left as extracted. The
// orchestrator calls this before records are stored, so stored records
// never carry relative hrefs.
func ResolveURLFields(records []models.Record, spec models.RecordSpec, base string) {
	bu, err := url.Parse(base)
	if err != nil {
		return
	}
	for _, f := range spec.Fields {
		if !f.ResolveURL {
			continue
		}
		for _, r := range records {
			raw, ok := r.Fields[f.Name].(string)
			if !ok || raw == "" {
				continue
			}
			resolved, err := bu.Parse(raw)
			if err != nil {
				continue
			}
			r.Fields[f.Name] = resolved.String()
		}
	}
}
