package model

// MergeSet is one cluster of record IDs the classifier judged to be the same
// person, with its confidence and natural-language justification. Reasoning
// is advisory only and is never parsed for logic.
type MergeSet struct {
	RecordIDs  []string `json:"record_ids"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Verdict is the resolver's decision for one candidate group. It is the only
// artifact the merge engine trusts. A Fallback verdict carries no merge sets
// and records why the group was degraded (retries exhausted, unparseable
// response).
type Verdict struct {
	GroupKey  string     `json:"group_key"`
	MergeSets []MergeSet `json:"merge_sets"`
	Fallback  bool       `json:"fallback,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// NoMerge builds the cautious fallback verdict for a group: every member
// stays separate.
func NoMerge(groupKey, reason string) Verdict {
	return Verdict{GroupKey: groupKey, Fallback: true, Reason: reason}
}
