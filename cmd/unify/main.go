// Command unify deduplicates a JSON contacts file in one batch run and
// optionally scores the result against ground-truth labels.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/agenthands/unify/internal/config"
	"github.com/agenthands/unify/internal/core"
	"github.com/agenthands/unify/internal/core/evaluate"
	"github.com/agenthands/unify/internal/llm"
	"github.com/agenthands/unify/internal/loader"
)

func main() {
	var (
		contactsPath = flag.String("contacts", "data/contacts.json", "path to contacts JSON file")
		truthPath    = flag.String("ground-truth", "", "optional ground-truth pairs for evaluation")
		configPath   = flag.String("config", "", "optional TOML config file")
		outPath      = flag.String("out", "results/deduplicated_contacts.json", "output path for canonical entities")
		threshold    = flag.Float64("threshold", -1, "override confidence threshold")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment as-is")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if *threshold >= 0 {
		cfg.Resolver.ConfidenceThreshold = *threshold
	}

	records, err := loader.LoadContacts(*contactsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load contacts")
	}
	log.Info().Int("records", len(records)).Str("path", *contactsPath).Msg("loaded contacts")

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LLM client")
	}

	pipeline, err := core.BuildPipeline(cfg, client, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pipeline")
	}

	result, err := pipeline.Run(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("deduplication run failed")
	}

	log.Info().
		Int("original", result.Stats.OriginalCount).
		Int("entities", result.Stats.FinalCount).
		Int("reduction", result.Stats.Reduction).
		Int("fallback_groups", result.Stats.FallbackGroups).
		Msg("deduplication complete")

	for _, d := range result.Degraded {
		log.Warn().Str("group", d.Key).Strs("records", d.RecordIDs).Str("reason", d.Reason).
			Msg("group degraded to no-merge")
	}

	if err := writeJSON(*outPath, result); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("failed to write results")
	}
	log.Info().Str("path", *outPath).Msg("results written")

	if *truthPath != "" {
		pairs, err := loader.LoadGroundTruth(*truthPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load ground truth")
		}
		metrics, mismatches := evaluate.Evaluate(result.Entities, pairs)
		log.Info().Str("metrics", metrics.String()).Msg("evaluation complete")
		for _, mm := range mismatches {
			log.Warn().
				Str("a", mm.Pair.EntityAID).
				Str("b", mm.Pair.EntityBID).
				Bool("expected", mm.Pair.IsMatch).
				Bool("predicted", mm.Predicted).
				Msg("mismatch")
		}
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
