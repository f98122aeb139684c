// Package evaluate scores a canonical entity set against ground-truth pair
// labels. It consumes only the pipeline output; the partition invariant makes
// "same entity" well-defined for any record pair.
package evaluate

import (
	"fmt"

	"github.com/agenthands/unify/internal/core/model"
)

// LabeledPair is one ground-truth judgment about two input records.
type LabeledPair struct {
	EntityAID string `json:"entity_a_id"`
	EntityBID string `json:"entity_b_id"`
	IsMatch   bool   `json:"is_match"`
}

// Mismatch records a pair the pipeline got wrong, for error analysis.
type Mismatch struct {
	Pair      LabeledPair `json:"pair"`
	Predicted bool        `json:"predicted"`
}

type Metrics struct {
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1_score"`
	Accuracy       float64 `json:"accuracy"`
	TruePositives  int     `json:"true_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Total          int     `json:"total_predictions"`
	Skipped        int     `json:"skipped_pairs"`
}

func (m Metrics) String() string {
	return fmt.Sprintf(
		"precision=%.4f recall=%.4f f1=%.4f accuracy=%.4f (tp=%d fp=%d fn=%d tn=%d, %d pairs)",
		m.Precision, m.Recall, m.F1, m.Accuracy,
		m.TruePositives, m.FalsePositives, m.FalseNegatives, m.TrueNegatives, m.Total,
	)
}

// Evaluate compares the entity set against labeled pairs. Predicted-match
// means both records landed in the same entity's provenance. Pairs naming
// records absent from the output are skipped and counted, not failed.
func Evaluate(entities []model.CanonicalEntity, pairs []LabeledPair) (Metrics, []Mismatch) {
	entityOf := make(map[string]int)
	for i, e := range entities {
		for _, id := range e.Provenance {
			entityOf[id] = i
		}
	}

	var m Metrics
	var mismatches []Mismatch
	for _, p := range pairs {
		ea, okA := entityOf[p.EntityAID]
		eb, okB := entityOf[p.EntityBID]
		if !okA || !okB {
			m.Skipped++
			continue
		}

		predicted := ea == eb
		m.Total++
		switch {
		case predicted && p.IsMatch:
			m.TruePositives++
		case predicted && !p.IsMatch:
			m.FalsePositives++
		case !predicted && p.IsMatch:
			m.FalseNegatives++
		default:
			m.TrueNegatives++
		}
		if predicted != p.IsMatch {
			mismatches = append(mismatches, Mismatch{Pair: p, Predicted: predicted})
		}
	}

	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(m.Total)
	}
	return m, mismatches
}
