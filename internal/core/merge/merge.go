// Package merge folds resolver verdicts into canonical entities. This is the
// correctness-critical part of the pipeline: every input record must appear
// in exactly one output entity's provenance, and a reconciled value must
// always come from a provenance record.
package merge

import (
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenthands/unify/internal/core/model"
)

// Engine accumulates unions from verdicts over a disjoint-set seeded with
// every input record, then materializes canonical entities.
type Engine struct {
	threshold float64
	ds        *DisjointSet
	records   map[string]model.Record
	order     map[string]int // record ID -> ingestion index
	ordered   []string
	log       zerolog.Logger
}

// NewEngine seeds the union-find with every record as its own singleton, so
// the partition invariant holds even for records no verdict ever mentions.
func NewEngine(records []model.Record, threshold float64, log zerolog.Logger) *Engine {
	e := &Engine{
		threshold: threshold,
		ds:        NewDisjointSet(),
		records:   make(map[string]model.Record, len(records)),
		order:     make(map[string]int, len(records)),
		log:       log,
	}
	for i, r := range records {
		e.ds.Add(r.ID)
		e.records[r.ID] = r
		e.order[r.ID] = i
		e.ordered = append(e.ordered, r.ID)
	}
	return e
}

// Apply unions each merge set whose confidence clears the threshold.
// Below-threshold sets are no-ops; IDs outside the input set are ignored
// (a hallucinated ID must never mint a phantom record). Conflicting verdicts
// across groups simply union both classes, which is expected behavior, not
// an error.
func (e *Engine) Apply(v model.Verdict) {
	for _, ms := range v.MergeSets {
		if ms.Confidence < e.threshold {
			e.log.Debug().
				Str("group", v.GroupKey).
				Float64("confidence", ms.Confidence).
				Float64("threshold", e.threshold).
				Msg("merge set below threshold, skipping")
			continue
		}

		var known []string
		for _, id := range ms.RecordIDs {
			if _, ok := e.records[id]; !ok {
				e.log.Warn().Str("group", v.GroupKey).Str("record_id", id).
					Msg("verdict references unknown record, ignoring")
				continue
			}
			known = append(known, id)
		}
		for i := 1; i < len(known); i++ {
			e.ds.Union(known[0], known[i])
		}
		if len(known) > 1 {
			e.log.Info().
				Str("group", v.GroupKey).
				Strs("records", known).
				Float64("confidence", ms.Confidence).
				Msg("merged records")
		}
	}
}

// Materialize walks the union-find's root classes and builds one canonical
// entity per class. Must only be called after all verdicts are applied.
func (e *Engine) Materialize() []model.CanonicalEntity {
	classes := e.ds.Classes()

	// Deterministic entity order: by earliest-seen member.
	roots := make([]string, 0, len(classes))
	for root, members := range classes {
		sort.Slice(members, func(i, j int) bool {
			return e.order[members[i]] < e.order[members[j]]
		})
		classes[root] = members
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		return e.order[classes[roots[i]][0]] < e.order[classes[roots[j]][0]]
	})

	entities := make([]model.CanonicalEntity, 0, len(roots))
	for _, root := range roots {
		members := classes[root]
		sources := make([]model.Record, 0, len(members))
		for _, id := range members {
			sources = append(sources, e.records[id])
		}
		attrs, conflicts := e.reconcile(members)
		entities = append(entities, model.CanonicalEntity{
			EntityID:      uuid.New().String(),
			Attributes:    attrs,
			Provenance:    members,
			SourceRecords: sources,
			Conflicts:     conflicts,
		})
	}
	return entities
}

// reconcile picks one value per field: most frequent non-empty value across
// the provenance records, ties broken by the earliest-seen record carrying a
// candidate value. Fields where provenance disagrees are also reported as
// conflicts with every observed value.
func (e *Engine) reconcile(members []string) (map[string]string, []model.FieldConflict) {
	type candidate struct {
		count int
		first int // ingestion index of earliest record with this value
	}

	fields := make(map[string]map[string]*candidate)
	var fieldOrder []string

	for _, id := range members {
		r := e.records[id]
		for field, value := range r.Attributes {
			if value == "" {
				continue
			}
			byValue, ok := fields[field]
			if !ok {
				byValue = make(map[string]*candidate)
				fields[field] = byValue
				fieldOrder = append(fieldOrder, field)
			}
			c, ok := byValue[value]
			if !ok {
				c = &candidate{first: e.order[id]}
				byValue[value] = c
			}
			c.count++
			if e.order[id] < c.first {
				c.first = e.order[id]
			}
		}
	}
	sort.Strings(fieldOrder)

	attrs := make(map[string]string, len(fieldOrder))
	var conflicts []model.FieldConflict
	for _, field := range fieldOrder {
		byValue := fields[field]

		var best string
		var bestC *candidate
		for value, c := range byValue {
			if bestC == nil ||
				c.count > bestC.count ||
				(c.count == bestC.count && c.first < bestC.first) ||
				(c.count == bestC.count && c.first == bestC.first && value < best) {
				best, bestC = value, c
			}
		}
		attrs[field] = best

		if len(byValue) > 1 {
			values := make([]string, 0, len(byValue))
			for value := range byValue {
				values = append(values, value)
			}
			sort.Strings(values)
			conflicts = append(conflicts, model.FieldConflict{Field: field, Values: values})
		}
	}
	return attrs, conflicts
}
