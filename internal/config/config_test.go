package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/pacing"
)

// isolate runs the test in an empty directory with no vendor keys set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Engine.Performance, cfg.Engine.Performance)
	assert.Equal(t, want.Engine.Pacing, cfg.Engine.Pacing)
	assert.Equal(t, pacing.DefaultPhases(), cfg.Engine.Phases)
	assert.Equal(t, 50, cfg.Engine.Stable.BatchSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, want.Authoring.MaxAttempts, cfg.Authoring.MaxAttempts)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "adaptiq.yaml"), `
performance:
  step: 1
  max_difficulty: 8
stable:
  batch_size: 20
catalog:
  path: templates.json
server:
  addr: 127.0.0.1:9000
llm:
  provider: openai
  openai:
    api_key: sk-test
  timeout: 15s
phases:
  - phase_type: introduction
    base_percentage: 40
    min_percentage: 30
    max_percentage: 50
  - phase_type: review
    base_percentage: 60
    min_percentage: 50
    max_percentage: 70
    adaptive_factors:
      performance_based: true
`)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Engine.Performance.Step)
	assert.Equal(t, 8.0, cfg.Engine.Performance.MaxDifficulty)
	assert.Equal(t, 0.75, cfg.Engine.Performance.IncreaseThreshold, "unset keys keep defaults")
	assert.Equal(t, 20, cfg.Engine.Stable.BatchSize)
	assert.Equal(t, "templates.json", cfg.Catalog.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)

	require.Len(t, cfg.Engine.Phases, 2)
	assert.Equal(t, pacing.PhaseReview, cfg.Engine.Phases[1].PhaseType)
	assert.True(t, cfg.Engine.Phases[1].AdaptiveFactors.PerformanceBased)
	assert.False(t, cfg.Engine.Phases[1].AdaptiveFactors.PaceBased)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")
	writeFile(t, file, "server:\n  addr: :7000\nstable:\n  batch_size: 10\n")
	t.Setenv("ADAPTIQ_SERVER_ADDR", ":7100")
	t.Setenv("ADAPTIQ_PACING_SPEEDUP_FACTOR", "0.5")
	t.Setenv("ADAPTIQ_LLM_RETRY_MAX_WAIT", "3s")

	cfg, err := Load(Options{File: file})
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Engine.Stable.BatchSize)
	assert.Equal(t, 0.5, cfg.Engine.Pacing.SpeedupFactor)
	assert.Equal(t, 3*time.Second, cfg.LLM.Retry.MaxWait)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "ADAPTIQ_LOG_LEVEL=debug\nADAPTIQ_LLM_PROVIDER=gemini\nADAPTIQ_LLM_GEMINI_API_KEY=g-key\n")
	// godotenv skips variables that are already set, even to "". Setenv
	// registers the restore; Unsetenv leaves them absent for the load.
	for _, k := range []string{"ADAPTIQ_LOG_LEVEL", "ADAPTIQ_LLM_PROVIDER", "ADAPTIQ_LLM_GEMINI_API_KEY"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
	require.NoError(t, cfg.LLM.Validate())
}

func TestLoad_DiscoversVendorKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-vendor")
	t.Setenv("ADAPTIQ_LLM_OPENAI_MODEL", "gpt-4.1-mini")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-vendor", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.OpenAI.Model)
}

func TestLoad_ExplicitProviderBeatsDiscovery(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-vendor")
	t.Setenv("ADAPTIQ_LLM_PROVIDER", "mock")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.OpenAI.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		dir := isolate(t)
		_, err := Load(Options{File: filepath.Join(dir, "nope.yaml")})
		assert.ErrorContains(t, err, "read config")
	})
	t.Run("malformed yaml", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, "adaptiq.yaml"), "server: [unclosed\n")
		_, err := Load(Options{})
		assert.ErrorContains(t, err, "read config")
	})
	t.Run("invalid phases", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, "adaptiq.yaml"), `
phases:
  - phase_type: review
    base_percentage: 80
    min_percentage: 10
    max_percentage: 50
`)
		_, err := Load(Options{})
		assert.ErrorContains(t, err, "phases")
	})
}
