package core

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agenthands/unify/internal/config"
	"github.com/agenthands/unify/internal/core/blocking"
	"github.com/agenthands/unify/internal/core/resolver"
	"github.com/agenthands/unify/internal/llm"
)

// BuildPipeline assembles the production pipeline from config: the provider
// client wrapped with the bounded-retry policy, the configured blocking keys,
// and the confidence threshold applied at the merge boundary.
func BuildPipeline(cfg *config.Config, client llm.LLMClient, log zerolog.Logger) (*Pipeline, error) {
	keys, err := blocking.Keys(cfg.Blocking.Keys)
	if err != nil {
		return nil, err
	}

	policy := llm.RetryPolicy{
		MaxRetries:      cfg.Resolver.MaxRetries,
		InitialInterval: time.Duration(cfg.Resolver.InitialBackoffMS) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.Resolver.MaxBackoffMS) * time.Millisecond,
		CallTimeout:     time.Duration(cfg.Resolver.CallTimeoutMS) * time.Millisecond,
	}
	retrying := llm.NewRetryClient(client, policy, log)

	res := resolver.NewResolver(retrying, cfg.Resolver.Prompt, log)

	return NewPipeline(
		blocking.NewIndex(keys),
		res,
		cfg.Resolver.ConfidenceThreshold,
		cfg.Concurrency.ResolveWorkers,
		log,
	), nil
}
