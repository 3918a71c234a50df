package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 1, cfg.Retrieval.K)
	assert.Equal(t, 1.0, cfg.Retrieval.Lambda)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, 5, cfg.Generation.DefaultNumQuestions)
	assert.Equal(t, 1000, cfg.VectorDB.ChunkSize)
	assert.Equal(t, 200, cfg.VectorDB.ChunkOverlap)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[retrieval]
similarity_threshold = 0.7
k = 2

[llm]
provider = "ollama"
api_key = "from-file"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RETRIEVAL_K", "4")
	t.Setenv("USE_WEB_FALLBACK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 4, cfg.Retrieval.K)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.True(t, cfg.Generation.UseWebFallback)
	assert.Equal(t, "from-file", cfg.Embedding.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RAGQUIZ_TEST_ONLY=1\nMYSQL_DB=quiz_test\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	// godotenv writes into the process env; register cleanup for those keys.
	t.Setenv("MYSQL_DB", "")
	os.Unsetenv("MYSQL_DB")
	t.Cleanup(func() { os.Unsetenv("RAGQUIZ_TEST_ONLY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "quiz_test", cfg.MySQL.DB)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.VectorDB.ChunkOverlap = cfg.VectorDB.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate(), "auth without a secret")

	cfg = defaultConfig()
	cfg.LLM.Provider = "bard"
	assert.Error(t, cfg.Validate())
}
