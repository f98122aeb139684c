package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agenthands/unify/internal/config"
	"github.com/agenthands/unify/internal/core"
	"github.com/agenthands/unify/internal/core/blocking"
	"github.com/agenthands/unify/internal/core/model"
	"github.com/agenthands/unify/internal/llm"
)

type Server struct {
	Pipeline *core.Pipeline
	log      zerolog.Logger
}

// NewServer wires a pipeline from config: provider client, retry wrapper,
// blocking keys, threshold.
func NewServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	p, err := core.BuildPipeline(cfg, client, log)
	if err != nil {
		return nil, err
	}
	return &Server{Pipeline: p, log: log}, nil
}

// NewServerWithResolver is the test seam: inject any GroupResolver.
func NewServerWithResolver(cfg *config.Config, r core.GroupResolver, log zerolog.Logger) (*Server, error) {
	keys, err := blocking.Keys(cfg.Blocking.Keys)
	if err != nil {
		return nil, err
	}
	p := core.NewPipeline(blocking.NewIndex(keys), r,
		cfg.Resolver.ConfidenceThreshold, cfg.Concurrency.ResolveWorkers, log)
	return &Server{Pipeline: p, log: log}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/deduplicate", s.Deduplicate)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type DeduplicateRequest struct {
	Records []model.Record `json:"records"`
}

func (s *Server) Deduplicate(c *gin.Context) {
	var req DeduplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := s.Pipeline.Run(c.Request.Context(), req.Records)
	if err != nil {
		s.log.Error().Err(err).Msg("deduplication run failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
