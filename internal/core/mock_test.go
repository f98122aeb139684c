package core

import (
	"context"

	"github.com/agenthands/unify/internal/core/model"
)

// stubResolver answers from a fixed verdict table keyed by blocking key;
// unknown groups get an empty (no-merge) verdict.
type stubResolver struct {
	verdicts map[string]model.Verdict
	calls    int
}

func (s *stubResolver) Resolve(ctx context.Context, group model.CandidateGroup, records map[string]model.Record) model.Verdict {
	s.calls++
	if v, ok := s.verdicts[group.Key]; ok {
		v.GroupKey = group.Key
		return v
	}
	return model.Verdict{GroupKey: group.Key}
}

// failingResolver simulates a classifier that always exhausts its retries.
type failingResolver struct{}

func (failingResolver) Resolve(ctx context.Context, group model.CandidateGroup, records map[string]model.Record) model.Verdict {
	return model.NoMerge(group.Key, "classifier call failed: context deadline exceeded")
}
