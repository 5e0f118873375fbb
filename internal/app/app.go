// Package app is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/chunker"
	"github.com/kailas-cloud/mechmind/internal/config"
	"github.com/kailas-cloud/mechmind/internal/db"
	"github.com/kailas-cloud/mechmind/internal/db/sqlite"
	"github.com/kailas-cloud/mechmind/internal/db/valkey"
	"github.com/kailas-cloud/mechmind/internal/document/pdf"
	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/metrics"
	"github.com/kailas-cloud/mechmind/internal/repository/chunk"
	clauserepo "github.com/kailas-cloud/mechmind/internal/repository/clause"
	"github.com/kailas-cloud/mechmind/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/mechmind/internal/transport/openai"
	answeruc "github.com/kailas-cloud/mechmind/internal/usecase/answer"
	clauseuc "github.com/kailas-cloud/mechmind/internal/usecase/clause"
	embeddinguc "github.com/kailas-cloud/mechmind/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/mechmind/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/mechmind/internal/usecase/ingest"
)

// defaultReadiness bounds the wait for a valkey vector store.
const defaultReadiness = 10 * time.Second

// vectorStore is what the resolver and the ingester need from a chunk repository.
type vectorStore interface {
	Insert(ctx context.Context, source, text string, vector []float32) (int64, error)
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error)
	Count(ctx context.Context) (int, error)
}

// App holds the wired services.
type App struct {
	Answers *answeruc.Service
	Clauses *clauseuc.Service
	Ingest  *ingestuc.Service
	Health  *healthuc.Service

	closers []func()
}

// Close releases every store opened by Build, last opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build opens the stores and assembles the services from cfg.
// Metrics must already be registered when the embedding cache is on.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Failed to close database", zap.Error(cerr))
		}
	})
	logger.Info("Opened database", zap.String("path", store.Path()))

	probes := []healthuc.Probe{healthuc.PingProbe("database", store)}

	metric := domain.Metric(cfg.VectorStore.Metric)
	dim := cfg.Embedding.Dimensions

	var (
		vectors vectorStore
		kv      db.KVStore = store
	)
	switch cfg.VectorStore.Driver {
	case config.DriverValkey:
		vs, err := openValkey(ctx, cfg.VectorStore)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, vs.Close)

		repo := chunk.NewValkey(vs, cfg.VectorStore.KeyPrefix, dim, metric).WithHNSW(chunk.HNSWConfig{
			M:           cfg.VectorStore.HNSWM,
			EFConstruct: cfg.VectorStore.HNSWEFConstruct,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure chunk index: %w", err)
		}
		vectors = repo
		kv = vs
		probes = append(probes, healthuc.PingProbe("vector_store", vs))
		logger.Info("Connected to vector store",
			zap.Strings("addrs", cfg.VectorStore.Addrs),
			zap.Int("hnsw_m", cfg.VectorStore.HNSWM),
		)
	case config.DriverSQLite:
		vectors = chunk.NewSQL(store.DB(), dim, metric)
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.VectorStore.Driver)
	}

	embedder := buildEmbedder(cfg.Embedding, kv, logger)
	probes = append(probes, healthuc.CheckerProbe("embedding", embedder))

	// Pass nil interface (not typed nil pointer!) when the LLM is disabled.
	var completer answeruc.Completer
	if cfg.LLM.Enabled {
		completer = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			Config: openaiTransport.Config{
				APIKey:   cfg.LLM.APIKey,
				BaseURL:  cfg.LLM.BaseURL,
				Model:    cfg.LLM.Model,
				Provider: cfg.LLM.Provider,
				Logger:   logger,
			},
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	}

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("create splitter: %w", err)
	}

	clauses := clauserepo.New(store.DB())

	a.Clauses = clauseuc.New(clauses)
	a.Ingest = ingestuc.New(splitter, embedder, vectors, pdf.NewExtractor(logger), ingestuc.Options{
		BatchSize:         cfg.Embedding.BatchSize,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
	a.Answers = answeruc.New(clauses, vectors, embedder, completer, answeruc.Options{
		Mode:           answeruc.Mode(cfg.Answer.Mode),
		TopK:           cfg.Answer.TopK,
		ClauseMatching: cfg.Answer.ClauseMatchingEnabled(),
		MaxQuestionLen: cfg.Answer.MaxQuestionLen,
		SystemPrompt:   cfg.LLM.SystemPrompt,
	})
	a.Health = healthuc.New(probes...)

	logger.Info("Services ready",
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", dim),
		zap.Bool("llm", cfg.LLM.Enabled),
		zap.String("answer_mode", cfg.Answer.Mode),
	)

	ok = true
	return a, nil
}

func openValkey(ctx context.Context, cfg config.VectorStoreConfig) (*valkey.Store, error) {
	vs, err := valkey.NewStore(valkey.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	timeout := defaultReadiness
	if cfg.ReadinessTimeout > 0 {
		timeout = time.Duration(cfg.ReadinessTimeout) * time.Second
	}
	if err := vs.WaitForReady(ctx, timeout); err != nil {
		vs.Close()
		return nil, fmt.Errorf("vector store not ready: %w", err)
	}
	return vs, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, kv db.KVStore, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache && kv != nil {
		embedder = embcache.New(base, kv, cfg.Model, cfg.Dimensions, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.BatchSize, logger)
}
