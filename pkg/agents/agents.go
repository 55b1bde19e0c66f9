package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-orchestrator/pkg/clients"
	"github.com/mikeboe/research-orchestrator/pkg/config"
	"github.com/mikeboe/research-orchestrator/pkg/database"
	"github.com/mikeboe/research-orchestrator/pkg/embeddings"
	"github.com/mikeboe/research-orchestrator/pkg/report"
	"github.com/mikeboe/research-orchestrator/pkg/research"
	"github.com/mikeboe/research-orchestrator/pkg/splitter"
	"github.com/mikeboe/research-orchestrator/pkg/tools"
	"github.com/mikeboe/research-orchestrator/pkg/vectorstore"
)

// BuildCollaborators assembles the full pipeline from configuration: model
// client, agents, search provider, content loader, document index and report
// sink. db may be nil, in which case indexed content stays in memory.
func BuildCollaborators(ctx context.Context, cfg *config.Config, db *database.PostgresDB, logger *slog.Logger) (research.Collaborators, error) {
	if logger == nil {
		logger = slog.Default()
	}

	model, err := newModel(ctx, cfg)
	if err != nil {
		return research.Collaborators{}, err
	}

	c := research.Collaborators{
		Planner:    NewPlanner(model, logger),
		Analyzer:   NewAnalyzer(model, logger),
		Summarizer: NewSummarizer(model, logger),
		Composer:   NewReporter(model, logger),
		Search:     newSearchProvider(cfg, logger),
		Sink:       report.NewWriter(cfg.OutputDir),
	}

	index, err := newDocumentIndex(ctx, cfg, db, logger)
	if err != nil {
		// Indexing is an enrichment; runs proceed without it.
		logger.Warn("document indexing disabled", "error", err)
		return c, nil
	}
	if index != nil {
		loader := tools.NewLoader(logger)
		if cfg.MistralApiKey != "" {
			loader = loader.WithPDFScraper(tools.NewPDFScraper(cfg.MistralApiKey))
		}
		c.Loader = loader
		c.Index = index
	}
	return c, nil
}

func newModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "google":
		return clients.GoogleAI(ctx, cfg.GoogleApiKey, cfg.GoogleModel)
	case "openai", "":
		return clients.OpenAI(cfg.OpenAIApiKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}

func newSearchProvider(cfg *config.Config, logger *slog.Logger) research.SearchProvider {
	if cfg.SearchProvider == "arxiv" {
		return tools.NewArxivClient(5, logger)
	}
	return tools.NewSerperClient(cfg.SerperApiKey, logger)
}

// newDocumentIndex wires the pgvector store when a database is available and
// falls back to the in-memory store otherwise. Without a Google API key there
// is no embedder and no index at all.
func newDocumentIndex(ctx context.Context, cfg *config.Config, db *database.PostgresDB, logger *slog.Logger) (research.DocumentIndex, error) {
	if cfg.GoogleApiKey == "" {
		return nil, nil
	}

	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	chunker := splitter.NewRecursiveCharacterTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	if db == nil {
		return vectorstore.NewMemoryStore(embedder, chunker), nil
	}

	if err := db.EnsureVectorExtension(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure vector extension: %w", err)
	}
	if err := db.CreateEmbeddingsTable(ctx, cfg.CollectionName, embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("failed to create embeddings table: %w", err)
	}

	store, err := vectorstore.NewPGVectorStore(db.Pool, embedder, chunker, cfg.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	logger.Info("document index ready", "collection", cfg.CollectionName)
	return store, nil
}
