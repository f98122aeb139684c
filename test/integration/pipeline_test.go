//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/unify/internal/config"
	"github.com/agenthands/unify/internal/core"
	"github.com/agenthands/unify/internal/core/model"
	"github.com/agenthands/unify/internal/llm"
)

// scriptedClient answers like the classifier would, keyed on prompt content,
// so the full stack (blocking -> retry client -> resolver -> merge) runs
// without network access.
type scriptedClient struct {
	rules map[string]string // substring of prompt -> response
}

func (c *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	for needle, response := range c.rules {
		if strings.Contains(prompt, needle) {
			return response, nil
		}
	}
	return `{"merge_groups": [], "confidence": [], "reasoning": []}`, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Resolver.InitialBackoffMS = 1
	cfg.Resolver.MaxBackoffMS = 1
	cfg.Resolver.CallTimeoutMS = 1000
	return cfg
}

func TestFullFlowScripted(t *testing.T) {
	client := &scriptedClient{rules: map[string]string{
		"Robert Smith": "```json\n" + `{"merge_groups": [["1","2"]], "confidence": [0.95], "reasoning": ["Bob is a standard nickname for Robert, shared email."]}` + "\n```",
	}}

	pipeline, err := core.BuildPipeline(testConfig(), client, zerolog.Nop())
	require.NoError(t, err)

	records := []model.Record{
		{ID: "1", Attributes: map[string]string{"full_name": "Robert Smith", "email": "r.smith@acme.com"}},
		{ID: "2", Attributes: map[string]string{"full_name": "Bob Smith", "email": "r.smith@acme.com"}},
		{ID: "3", Attributes: map[string]string{"full_name": "Alice Jones"}},
	}

	result, err := pipeline.Run(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, []string{"1", "2"}, result.Entities[0].Provenance)
	assert.Equal(t, "Robert Smith", result.Entities[0].Attributes["full_name"])
	assert.Equal(t, []string{"3"}, result.Entities[1].Provenance)
	assert.Empty(t, result.Degraded)
}

type downClient struct{}

func (downClient) Generate(ctx context.Context, prompt string) (string, error) {
	return "", context.DeadlineExceeded
}

func TestFullFlowClassifierDown(t *testing.T) {
	// Retries exhaust quickly, every group degrades, and the run still
	// produces the all-singletons partition.
	pipeline, err := core.BuildPipeline(testConfig(), downClient{}, zerolog.Nop())
	require.NoError(t, err)

	records := []model.Record{
		{ID: "1", Attributes: map[string]string{"full_name": "Robert Smith"}},
		{ID: "2", Attributes: map[string]string{"full_name": "Bob Smith"}},
	}

	result, err := pipeline.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Len(t, result.Entities, 2)
	require.Len(t, result.Degraded, 1)
	assert.Equal(t, 1, result.Stats.FallbackGroups)
}

func TestFullFlowLiveLLM(t *testing.T) {
	_ = godotenv.Load("../../.env")

	cfg := config.Default()
	cfg.ApplyEnv()
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		t.Skip("Skipping live test: no LLM API key set")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	pipeline, err := core.BuildPipeline(cfg, client, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)

	records := []model.Record{
		{ID: "c1", Attributes: map[string]string{"full_name": "Jennifer Martinez", "email": "jennifer.martinez@dataco.com", "company": "DataCo"}},
		{ID: "c2", Attributes: map[string]string{"full_name": "Jenny Martinez", "phone": "+1-555-6789", "company": "DataCo"}},
		{ID: "c3", Attributes: map[string]string{"full_name": "John Smith", "email": "john.smith@companya.com", "company": "Company A"}},
		{ID: "c4", Attributes: map[string]string{"full_name": "John Smith", "email": "john.smith@companyb.com", "company": "Company B"}},
	}

	result, err := pipeline.Run(ctx, records)
	require.NoError(t, err)

	// Whatever the model decides, the output must still partition the input.
	seen := make(map[string]int)
	for _, e := range result.Entities {
		for _, id := range e.Provenance {
			seen[id]++
		}
	}
	require.Len(t, seen, len(records))
	for _, r := range records {
		assert.Equal(t, 1, seen[r.ID])
	}
}
