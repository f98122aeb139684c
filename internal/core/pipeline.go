// Package core wires blocking, resolution and merging into the dedupe
// pipeline: load records -> block -> resolve each group -> merge -> canonical
// entities. The pipeline is stateless between runs.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/unify/internal/core/blocking"
	"github.com/agenthands/unify/internal/core/merge"
	"github.com/agenthands/unify/internal/core/model"
)

// GroupResolver decides merges for one candidate group. Implemented by
// resolver.Resolver in production and by deterministic stubs in tests.
type GroupResolver interface {
	Resolve(ctx context.Context, group model.CandidateGroup, records map[string]model.Record) model.Verdict
}

// DegradedGroup describes a group whose verdict fell back to no-merge, so
// degraded runs are surfaced alongside the output rather than swallowed.
type DegradedGroup struct {
	Key       string   `json:"key"`
	RecordIDs []string `json:"record_ids"`
	Reason    string   `json:"reason"`
}

type Stats struct {
	OriginalCount   int           `json:"original_count"`
	CandidateGroups int           `json:"candidate_groups"`
	ResolvedGroups  int           `json:"resolved_groups"`
	FallbackGroups  int           `json:"fallback_groups"`
	MergedEntities  int           `json:"merged_entities"`
	FinalCount      int           `json:"final_count"`
	Reduction       int           `json:"reduction"`
	Elapsed         time.Duration `json:"elapsed"`
}

type Result struct {
	Entities []model.CanonicalEntity `json:"entities"`
	Degraded []DegradedGroup         `json:"degraded_groups,omitempty"`
	Stats    Stats                   `json:"stats"`
}

// Pipeline holds no mutable state across runs; concurrent Run calls over
// different batches are safe.
type Pipeline struct {
	blocker   *blocking.Index
	resolver  GroupResolver
	threshold float64
	workers   int
	log       zerolog.Logger
}

func NewPipeline(blocker *blocking.Index, resolver GroupResolver, threshold float64, workers int, log zerolog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		blocker:   blocker,
		resolver:  resolver,
		threshold: threshold,
		workers:   workers,
		log:       log,
	}
}

// Run deduplicates records into canonical entities. Only total input failure
// is fatal; a degraded classifier shows up as fallback verdicts, never as an
// error from Run.
func (p *Pipeline) Run(ctx context.Context, records []model.Record) (*Result, error) {
	start := time.Now()

	byID, err := indexRecords(records)
	if err != nil {
		return nil, err
	}

	groups := p.blocker.Build(records)

	// Size-1 groups carry nothing to decide; their records are already
	// seeded as singletons in the merge engine.
	var resolvable []int
	for i, g := range groups {
		if len(g.RecordIDs) >= 2 {
			resolvable = append(resolvable, i)
		}
	}

	p.log.Info().
		Int("records", len(records)).
		Int("groups", len(groups)).
		Int("resolvable", len(resolvable)).
		Msg("blocking complete")

	// Resolve groups concurrently; verdict slots keep production order so
	// union application (and its logging) stays deterministic.
	verdicts := make([]model.Verdict, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, i := range resolvable {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i] = p.resolver.Resolve(gctx, groups[i], byID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Aborted between resolutions: partially computed verdicts are
		// discarded with the run, no unions were committed.
		return nil, fmt.Errorf("resolution aborted: %w", err)
	}

	engine := merge.NewEngine(records, p.threshold, p.log)
	var degraded []DegradedGroup
	for _, i := range resolvable {
		v := verdicts[i]
		if v.Fallback {
			degraded = append(degraded, DegradedGroup{
				Key:       groups[i].Key,
				RecordIDs: groups[i].RecordIDs,
				Reason:    v.Reason,
			})
		}
		engine.Apply(v)
	}

	entities := engine.Materialize()

	merged := 0
	for _, e := range entities {
		if len(e.Provenance) > 1 {
			merged++
		}
	}

	result := &Result{
		Entities: entities,
		Degraded: degraded,
		Stats: Stats{
			OriginalCount:   len(records),
			CandidateGroups: len(groups),
			ResolvedGroups:  len(resolvable) - len(degraded),
			FallbackGroups:  len(degraded),
			MergedEntities:  merged,
			FinalCount:      len(entities),
			Reduction:       len(records) - len(entities),
			Elapsed:         time.Since(start),
		},
	}

	p.log.Info().
		Int("entities", result.Stats.FinalCount).
		Int("reduction", result.Stats.Reduction).
		Int("fallback_groups", result.Stats.FallbackGroups).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("pipeline run complete")

	return result, nil
}

func indexRecords(records []model.Record) (map[string]model.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no input records")
	}
	byID := make(map[string]model.Record, len(records))
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record with empty id")
		}
		if _, exists := byID[r.ID]; exists {
			return nil, fmt.Errorf("duplicate record id %q", r.ID)
		}
		byID[r.ID] = r
	}
	return byID, nil
}
