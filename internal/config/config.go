// Package config loads application settings from defaults, an optional
// YAML file, a .env file and ADAPTIQ_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/adaptiq/internal/authoring"
	"github.com/abhisek/adaptiq/internal/engine"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logging"
	"github.com/abhisek/adaptiq/internal/pacing"
)

// EnvPrefix prefixes every environment override, e.g.
// ADAPTIQ_SERVER_ADDR or ADAPTIQ_LLM_ANTHROPIC_API_KEY.
const EnvPrefix = "ADAPTIQ"

type Config struct {
	// Engine holds the performance, pacing, phases and stable sections.
	Engine engine.Config `mapstructure:",squash"`

	Catalog   CatalogConfig    `mapstructure:"catalog"`
	DB        DBConfig         `mapstructure:"db"`
	Server    ServerConfig     `mapstructure:"server"`
	Log       logging.Config   `mapstructure:"log"`
	LLM       llm.Config       `mapstructure:"llm"`
	Authoring authoring.Config `mapstructure:"authoring"`
}

// CatalogConfig points at a template catalog file. Empty uses the
// embedded default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// DBConfig points at the SQLite event store. Empty resolves the default
// data directory path.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

// Default returns the built-in settings of every component.
func Default() Config {
	return Config{
		Engine:    engine.DefaultConfig(),
		Server:    ServerConfig{Addr: ":8080", Mode: "release"},
		Log:       logging.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Authoring: authoring.DefaultConfig(),
	}
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty, adaptiq.yaml is looked
	// up in the working directory and $HOME/.config/adaptiq, and a missing
	// file is not an error.
	File string
	// EnvFile is loaded into the process environment before reading
	// overrides. Defaults to ".env"; a missing file is ignored.
	EnvFile string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Not defaulted so that an unset provider falls back to discovery.
	_ = v.BindEnv("llm.provider")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("adaptiq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "adaptiq"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// A configured phase list replaces the default one instead of being
	// merged into it element by element.
	if v.IsSet("phases") {
		cfg.Engine.Phases = nil
	}
	cfg.LLM.Provider = ""
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderAnthropic
		if found, ok := llm.DiscoverConfig(); ok && cfg.LLM.APIKey() == "" {
			cfg.LLM = mergeDiscovered(cfg.LLM, found)
		}
	}

	if err := pacing.ValidatePhases(cfg.Engine.Phases); err != nil {
		return nil, fmt.Errorf("phases: %w", err)
	}
	return &cfg, nil
}

// mergeDiscovered switches to the discovered provider and copies its key,
// keeping any models or endpoints set explicitly.
func mergeDiscovered(cfg, found llm.Config) llm.Config {
	cfg.Provider = found.Provider
	switch found.Provider {
	case llm.ProviderAnthropic:
		cfg.Anthropic.APIKey = found.Anthropic.APIKey
	case llm.ProviderOpenAI:
		cfg.OpenAI.APIKey = found.OpenAI.APIKey
	case llm.ProviderGemini:
		cfg.Gemini.APIKey = found.Gemini.APIKey
	case llm.ProviderOpenRouter:
		cfg.OpenRouter.APIKey = found.OpenRouter.APIKey
	}
	return cfg
}

// setDefaults registers every scalar key so that AutomaticEnv can override
// it during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	perf := cfg.Engine.Performance
	v.SetDefault("performance.increase_threshold", perf.IncreaseThreshold)
	v.SetDefault("performance.decrease_threshold", perf.DecreaseThreshold)
	v.SetDefault("performance.step", perf.Step)
	v.SetDefault("performance.min_difficulty", perf.MinDifficulty)
	v.SetDefault("performance.max_difficulty", perf.MaxDifficulty)
	v.SetDefault("performance.initial_ratio", perf.InitialRatio)
	v.SetDefault("performance.initial_response_time", perf.InitialResponseTime)
	v.SetDefault("performance.initial_difficulty", perf.InitialDifficulty)
	v.SetDefault("performance.initial_engagement", perf.InitialEngagement)

	pc := cfg.Engine.Pacing
	v.SetDefault("pacing.speedup_factor", pc.SpeedupFactor)
	v.SetDefault("pacing.extension_factor", pc.ExtensionFactor)
	v.SetDefault("pacing.low_performance_threshold", pc.LowPerformanceThreshold)
	v.SetDefault("pacing.low_performance_factor", pc.LowPerformanceFactor)
	v.SetDefault("pacing.high_performance_threshold", pc.HighPerformanceThreshold)
	v.SetDefault("pacing.high_performance_factor", pc.HighPerformanceFactor)
	v.SetDefault("pacing.early_advance_ratio", pc.EarlyAdvanceRatio)
	v.SetDefault("pacing.extended_ratio", pc.ExtendedRatio)

	v.SetDefault("stable.batch_size", cfg.Engine.Stable.BatchSize)
	v.SetDefault("max_pending", cfg.Engine.MaxPending)

	v.SetDefault("catalog.path", cfg.Catalog.Path)
	v.SetDefault("db.path", cfg.DB.Path)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.mode", cfg.Server.Mode)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age_days", cfg.Log.MaxAgeDays)
	v.SetDefault("log.compress", cfg.Log.Compress)

	l := cfg.LLM
	for name, p := range map[string]struct{ key, model, url string }{
		"anthropic":  {l.Anthropic.APIKey, l.Anthropic.Model, l.Anthropic.BaseURL},
		"openai":     {l.OpenAI.APIKey, l.OpenAI.Model, l.OpenAI.BaseURL},
		"gemini":     {l.Gemini.APIKey, l.Gemini.Model, l.Gemini.BaseURL},
		"openrouter": {l.OpenRouter.APIKey, l.OpenRouter.Model, l.OpenRouter.BaseURL},
	} {
		v.SetDefault("llm."+name+".api_key", p.key)
		v.SetDefault("llm."+name+".model", p.model)
		v.SetDefault("llm."+name+".base_url", p.url)
	}
	v.SetDefault("llm.retry.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", l.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", l.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", l.Retry.Multiplier)
	v.SetDefault("llm.timeout", l.Timeout)

	a := cfg.Authoring
	v.SetDefault("authoring.max_tokens", a.MaxTokens)
	v.SetDefault("authoring.temperature", a.Temperature)
	v.SetDefault("authoring.max_attempts", a.MaxAttempts)
	v.SetDefault("authoring.max_existing_ids", a.MaxExistingIDs)
}
