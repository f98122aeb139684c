package model

// FieldConflict records a field whose provenance records disagree, with every
// value observed. Kept for audit; reconciliation still picks exactly one.
type FieldConflict struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// CanonicalEntity is one deduplicated output record. Attributes holds the
// reconciled value per field; Provenance lists every contributing record ID
// in ingestion order; SourceRecords retains the raw attribute values so no
// source data is ever discarded by a merge.
type CanonicalEntity struct {
	EntityID      string            `json:"entity_id"`
	Attributes    map[string]string `json:"attributes"`
	Provenance    []string          `json:"provenance"`
	SourceRecords []Record          `json:"source_records"`
	Conflicts     []FieldConflict   `json:"conflicts,omitempty"`
}
