package report

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportData is the standard-agnostic document assembled from project state
// and aggregates, with standard-specific fields layered on top. It is what
// the validator checks, the renderer serializes and the signer hashes, so
// assembly must be deterministic for a given (project state, standard,
// options) triple.
type ReportData struct {
	Project    ProjectInfo            `json:"project"`
	Period     ReportingPeriod        `json:"period"`
	Standard   Standard               `json:"standard"`
	Emissions  EmissionsBlock         `json:"emissions"`
	Activities []ActivityLine         `json:"activities"`
	CFP        map[string]interface{} `json:"cfp,omitempty"`
	CFO        map[string]interface{} `json:"cfo,omitempty"`

	// StandardFields carries the per-standard supplemental values, keyed by
	// the field names the standard's requirement list uses.
	StandardFields map[string]interface{} `json:"standard_fields,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ProjectInfo identifies the reporting project and organization
type ProjectInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Organization string    `json:"organization"`
	Country      string    `json:"country,omitempty"`
}

// ReportingPeriod is the covered interval
type ReportingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EmissionsBlock is the aggregated summary embedded in the document
type EmissionsBlock struct {
	Scope1           string            `json:"scope1"`
	Scope2           string            `json:"scope2"`
	Scope3           string            `json:"scope3,omitempty"`
	Scope3Categories map[string]string `json:"scope3_categories,omitempty"`
	Total            string            `json:"total"`
}

// ActivityLine is one calculated activity as it appears in the document
type ActivityLine struct {
	ID             uuid.UUID `json:"id"`
	Scope          string    `json:"scope"`
	Category       string    `json:"category,omitempty"`
	ActivityType   string    `json:"activity_type"`
	Quantity       string    `json:"quantity"`
	Unit           string    `json:"unit"`
	TotalEmissions string    `json:"total_emissions"`
	FactorSource   string    `json:"factor_source"`
}

// Document projects the report data onto a generic JSON document for
// dotted-path presence checks and canonical hashing. The projection goes
// through encoding/json so field names match the serialized form exactly.
func (d *ReportData) Document() (map[string]interface{}, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LookupPath resolves a dotted path like "emissions.scope1" inside a
// document. It returns the value and whether the full path was present
// with a non-empty value.
func LookupPath(doc map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = doc
	for _, part := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, !isEmptyValue(cur)
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]interface{}:
		return len(val) == 0
	case []interface{}:
		return len(val) == 0
	}
	return false
}
