// Package loader reads contact datasets and ground-truth labels from JSON
// files. The core only requires unique record IDs and a string attribute map;
// everything beyond "id" in a contact object becomes an attribute.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/agenthands/unify/internal/core/evaluate"
	"github.com/agenthands/unify/internal/core/model"
)

// LoadContacts reads a JSON array of flat contact objects, e.g.
//
//	[{"id": "contact_1", "full_name": "Sarah Chen", "email": "sarah.chen@acme.com"}]
//
// Non-string values are stringified; null values are dropped.
func LoadContacts(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts file '%s': %w", path, err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse contacts JSON: %w", err)
	}

	records := make([]model.Record, 0, len(raw))
	for i, obj := range raw {
		id, _ := obj["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("contact at index %d has no id", i)
		}

		attrs := make(map[string]string)
		fields := make([]string, 0, len(obj))
		for k := range obj {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			if k == "id" {
				continue
			}
			switch v := obj[k].(type) {
			case nil:
				// absent
			case string:
				if v != "" {
					attrs[k] = v
				}
			default:
				attrs[k] = fmt.Sprintf("%v", v)
			}
		}
		records = append(records, model.Record{ID: id, Attributes: attrs})
	}
	return records, nil
}

// LoadGroundTruth reads labeled pairs for evaluation.
func LoadGroundTruth(path string) ([]evaluate.LabeledPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth file '%s': %w", path, err)
	}

	var pairs []evaluate.LabeledPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to parse ground truth JSON: %w", err)
	}
	return pairs, nil
}
