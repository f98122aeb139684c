package model

// Record is a raw input contact as supplied by the loader. Immutable once
// loaded; the pipeline only ever reads it.
type Record struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

// Get returns the value of an attribute, with ok=false when the field is
// missing or empty. Empty values are treated as absent everywhere.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.Attributes[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// CandidateGroup is a set of record IDs sharing a blocking key, in ingestion
// order. Groups are ephemeral: produced by the blocking index, consumed by
// the resolver, never persisted.
type CandidateGroup struct {
	Key       string   `json:"key"`
	RecordIDs []string `json:"record_ids"`
}
