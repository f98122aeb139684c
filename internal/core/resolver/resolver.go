// Package resolver turns a candidate group into a merge-or-reject verdict by
// delegating the identity decision to the classifier and parsing its response
// under a strict schema. Every failure path degrades to "keep separate".
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenthands/unify/internal/core/common"
	"github.com/agenthands/unify/internal/core/model"
	"github.com/agenthands/unify/internal/llm"
)

// verdictResponse is the fixed response schema of the classifier boundary.
// Confidence and reasoning run parallel to merge_groups.
type verdictResponse struct {
	MergeGroups [][]string `json:"merge_groups"`
	Confidence  []float64  `json:"confidence"`
	Reasoning   []string   `json:"reasoning"`
}

type Resolver struct {
	LLM    llm.LLMClient
	Prompt string // instruction template; defaultPrompt when empty
	log    zerolog.Logger
}

func NewResolver(llmClient llm.LLMClient, prompt string, log zerolog.Logger) *Resolver {
	if prompt == "" {
		prompt = defaultPrompt
	}
	return &Resolver{LLM: llmClient, Prompt: prompt, log: log}
}

// Resolve decides which members of the group refer to the same person.
// It never returns an error for a degraded classifier: retries are handled by
// the wrapped client, and exhaustion or an unparseable response yields a
// fallback no-merge verdict so one stuck group cannot stall the run.
func (r *Resolver) Resolve(ctx context.Context, group model.CandidateGroup, records map[string]model.Record) model.Verdict {
	prompt := r.buildPrompt(group, records)

	response, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		r.log.Warn().Err(err).Str("group", group.Key).
			Msg("classifier unavailable, keeping group members separate")
		return model.NoMerge(group.Key, fmt.Sprintf("classifier call failed: %v", err))
	}

	parsed, err := common.ParseJSON[verdictResponse](response)
	if err != nil {
		r.log.Warn().Err(err).Str("group", group.Key).
			Msg("classifier response violated verdict schema, keeping group members separate")
		return model.NoMerge(group.Key, fmt.Sprintf("schema violation: %v", err))
	}

	return r.toVerdict(group, parsed)
}

// toVerdict validates the raw response against the group. Merge sets naming
// records outside the group, or with fewer than two known members, are
// dropped; a missing confidence entry is treated as zero so the threshold
// downgrades it later rather than a silent coerced merge.
func (r *Resolver) toVerdict(group model.CandidateGroup, parsed verdictResponse) model.Verdict {
	member := make(map[string]bool, len(group.RecordIDs))
	for _, id := range group.RecordIDs {
		member[id] = true
	}

	v := model.Verdict{GroupKey: group.Key}
	for i, ids := range parsed.MergeGroups {
		var known []string
		for _, id := range ids {
			if !member[id] {
				r.log.Warn().Str("group", group.Key).Str("record_id", id).
					Msg("classifier named a record outside the group, dropping it")
				continue
			}
			known = append(known, id)
		}
		if len(known) < 2 {
			continue
		}

		confidence := 0.0
		if i < len(parsed.Confidence) {
			confidence = parsed.Confidence[i]
		}
		reasoning := ""
		if i < len(parsed.Reasoning) {
			reasoning = parsed.Reasoning[i]
		}
		v.MergeSets = append(v.MergeSets, model.MergeSet{
			RecordIDs:  known,
			Confidence: confidence,
			Reasoning:  reasoning,
		})
	}
	return v
}

// buildPrompt lists each member's attribute snapshot side by side. Attribute
// serialization is sorted so the prompt is identical for identical snapshots,
// keeping resolution idempotent up to the model's own variance.
func (r *Resolver) buildPrompt(group model.CandidateGroup, records map[string]model.Record) string {
	var sb strings.Builder
	for _, id := range group.RecordIDs {
		rec := records[id]
		snapshot := make(map[string]string, len(rec.Attributes))
		for k, v := range rec.Attributes {
			if v != "" {
				snapshot[k] = v
			}
		}
		// json.Marshal sorts map keys, so identical snapshots always
		// serialize identically.
		data, _ := json.Marshal(snapshot)
		sb.WriteString(fmt.Sprintf("Record %s: %s\n", id, data))
	}

	return fmt.Sprintf(r.Prompt, len(group.RecordIDs), sb.String())
}

// defaultPrompt carries the hard-negative rules the system was tuned with:
// strict on first names, families, and location conflicts, lenient on
// nicknames and company-name variants.
const defaultPrompt = `You are a cynical Data Integrity Auditor. Your goal is to REJECT false matches.

Task: The %d records below may contain duplicates of the EXACT SAME individual.

CRITICAL RULES (trump all other evidence):
1. Different First Names = DIFFERENT PEOPLE (e.g. "Michael" vs "Michelle").
   - Exception: common nicknames (Robert -> Bob) are allowed.
2. Family Rule: sharing a Company + Last Name is NOT enough (could be siblings/spouses).
3. Location Conflict: different cities usually mean different people.

EXAMPLES (hard negatives to study):

[EXAMPLE 1: DO NOT MERGE]
Record x1: {"full_name": "Michael Chen", "company": "Google", "email": "m.chen@google.com"}
Record x2: {"full_name": "Michelle Chen", "company": "Google", "email": "michelle.c@google.com"}
Decision: {"merge_groups": [], "confidence": [], "reasoning": []}

[EXAMPLE 2: MERGE]
Record y1: {"full_name": "Robert Smith", "company": "Salesforce"}
Record y2: {"full_name": "Bob Smith", "company": "Salesforce Inc"}
Decision: {"merge_groups": [["y1","y2"]], "confidence": [0.95], "reasoning": ["Bob is a standard nickname for Robert. Company matches. No conflicting info."]}

YOUR ANALYSIS
Analyze the records below. Output a single JSON object with keys "merge_groups"
(list of lists of record IDs judged identical), "confidence" (one float in [0,1]
per merge group) and "reasoning" (one string per merge group). Records you do
not list in any merge group stay separate.

%s`
