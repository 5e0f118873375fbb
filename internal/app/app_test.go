package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/config"
	"github.com/kailas-cloud/mechmind/internal/db/sqlite"
	"github.com/kailas-cloud/mechmind/internal/domain"
)

func testConfig() config.Config {
	cfg := config.Config{
		HTTP:      config.HTTPConfig{Port: 8000},
		Database:  config.DatabaseConfig{Path: sqlite.MemoryPath},
		Embedding: config.EmbeddingConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestBuild_SQLite(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Answers)
	require.NotNil(t, a.Clauses)
	require.NotNil(t, a.Ingest)
	require.NotNil(t, a.Health)

	ctx := context.Background()
	n, err := a.Clauses.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ans, err := a.Answers.Resolve(ctx, "What is defined in clause 300.2?")
	require.NoError(t, err)
	assert.Equal(t, domain.StageClauseID, ans.Stage)
	assert.Equal(t, []string{"300.2"}, ans.Citations)

	// no chunks are stored, so the resolver never reaches the embedder
	ans, err = a.Answers.Resolve(ctx, "how do unicorns fly")
	require.NoError(t, err)
	assert.Equal(t, domain.StageFallback, ans.Stage)
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.VectorStore.Driver = "milvus"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vector store driver")
}

func TestBuild_InvalidChunking(t *testing.T) {
	cfg := testConfig()
	cfg.Chunking.Overlap = cfg.Chunking.Size

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	a.Close()
	a.Close()
}
