package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/agusespa/prsentinel/internal/aggregate"
	"github.com/agusespa/prsentinel/internal/analyzers"
	"github.com/agusespa/prsentinel/internal/classify"
	"github.com/agusespa/prsentinel/internal/llm"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string               `yaml:"log_level"`
	Server    ServerConfig         `yaml:"server"`
	GitHub    GitHubConfig         `yaml:"github"`
	LLM       LLMConfig            `yaml:"llm"`
	Policy    PolicyConfig         `yaml:"policy"`
	Analyzers analyzers.Thresholds `yaml:"analyzers"`
	Storage   StorageConfig        `yaml:"storage"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// ReviewTimeout bounds one webhook-triggered review, delivery included.
	ReviewTimeout time.Duration `yaml:"review_timeout"`
}

type GitHubConfig struct {
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
	// BaseURL targets GitHub Enterprise; empty means api.github.com.
	BaseURL string `yaml:"base_url"`
}

// LLMConfig configures the AI reviewer. An empty provider disables it.
type LLMConfig struct {
	Provider            string        `yaml:"provider"`
	Model               string        `yaml:"model"`
	BaseURL             string        `yaml:"base_url"`
	APIKey              string        `yaml:"api_key"`
	MaxTokens           int           `yaml:"max_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
	PromptVariant       string        `yaml:"prompt_variant"`
	MaxFileChars        int           `yaml:"max_file_chars"`
	MaxStaticFindings   int           `yaml:"max_static_findings"`
	ShareStaticFindings bool          `yaml:"share_static_findings"`
}

type PolicyConfig struct {
	BaseScore         int                     `yaml:"base_score"`
	NeutralThreshold  int                     `yaml:"neutral_threshold"`
	MinMergeScore     int                     `yaml:"min_merge_score"`
	MergeLabel        string                  `yaml:"merge_label"`
	Penalties         aggregate.Penalties     `yaml:"penalties"`
	Blocking          classify.BlockingPolicy `yaml:"blocking"`
	AutoFix           bool                    `yaml:"auto_fix"`
	AutoMerge         bool                    `yaml:"auto_merge"`
	MaxInlineComments int                     `yaml:"max_inline_comments"`
}

type StorageConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr:    ":8080",
			ReviewTimeout: 5 * time.Minute,
		},
		LLM: LLMConfig{
			Timeout: 60 * time.Second,
		},
		Policy: PolicyConfig{
			BaseScore:         types.DefaultBaseScore,
			NeutralThreshold:  10,
			MinMergeScore:     80,
			MergeLabel:        "autoMerge",
			Penalties:         aggregate.DefaultPenalties(),
			Blocking:          classify.DefaultBlockingPolicy(),
			MaxInlineComments: 25,
		},
		Analyzers: analyzers.DefaultThresholds(),
		Storage: StorageConfig{
			CacheTTL: 24 * time.Hour,
		},
	}
}

// LoadConfig reads the YAML file over the defaults, then applies .env and environment
// overrides. An empty filename skips the file.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

var envOverrides = []struct {
	name  string
	field func(c *Config) *string
}{
	{"GITHUB_TOKEN", func(c *Config) *string { return &c.GitHub.Token }},
	{"GITHUB_WEBHOOK_SECRET", func(c *Config) *string { return &c.GitHub.WebhookSecret }},
	{"LLM_API_KEY", func(c *Config) *string { return &c.LLM.APIKey }},
	{"DATABASE_URL", func(c *Config) *string { return &c.Storage.DatabaseURL }},
	{"REDIS_URL", func(c *Config) *string { return &c.Storage.RedisURL }},
	{"LISTEN_ADDR", func(c *Config) *string { return &c.Server.ListenAddr }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
}

func (c *Config) applyEnv() {
	for _, override := range envOverrides {
		if value, ok := os.LookupEnv(override.name); ok && value != "" {
			*override.field(c) = value
		}
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Policy.BaseScore < 0 || c.Policy.BaseScore > 100 {
		errs = append(errs, fmt.Errorf("policy.base_score must be within 0-100, got %d", c.Policy.BaseScore))
	}
	if c.Policy.MinMergeScore < 0 || c.Policy.MinMergeScore > 100 {
		errs = append(errs, fmt.Errorf("policy.min_merge_score must be within 0-100, got %d", c.Policy.MinMergeScore))
	}
	if c.Policy.NeutralThreshold < 0 {
		errs = append(errs, fmt.Errorf("policy.neutral_threshold must not be negative, got %d", c.Policy.NeutralThreshold))
	}
	if c.Policy.MaxInlineComments < 0 {
		errs = append(errs, fmt.Errorf("policy.max_inline_comments must not be negative, got %d", c.Policy.MaxInlineComments))
	}
	if c.Policy.AutoMerge && c.Policy.MergeLabel == "" {
		errs = append(errs, errors.New("policy.merge_label is required when auto_merge is enabled"))
	}
	for severity, penalty := range c.Policy.Penalties {
		if !slices.Contains(types.Severities, severity) {
			errs = append(errs, fmt.Errorf("policy.penalties has unknown severity %q", severity))
		}
		if penalty < 0 {
			errs = append(errs, fmt.Errorf("policy.penalties.%s must not be negative, got %d", severity, penalty))
		}
	}

	if c.LLM.Provider != "" && !slices.Contains(llm.SupportedProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported (supported: %v)", c.LLM.Provider, llm.SupportedProviders))
	}
	if c.LLM.Model != "" {
		if err := llm.ValidateModel(c.LLM.Model); err != nil {
			errs = append(errs, err)
		}
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout))
	}
	if c.LLM.MaxFileChars < 0 || c.LLM.MaxStaticFindings < 0 {
		errs = append(errs, errors.New("llm.max_file_chars and llm.max_static_findings must not be negative"))
	}

	t := c.Analyzers
	if t.MaxCyclomatic <= 0 || t.MaxCognitive <= 0 || t.MaxFunctionLines <= 0 || t.MaxParameters <= 0 {
		errs = append(errs, errors.New("analyzers thresholds must be positive"))
	}

	return errors.Join(errs...)
}

// AIEnabled reports whether an LLM provider is configured.
func (c *Config) AIEnabled() bool {
	return c.LLM.Provider != ""
}

const redacted = "***"

// Redacted returns a copy with tokens, keys and connection strings masked.
func (c Config) Redacted() Config {
	for _, secret := range []*string{
		&c.GitHub.Token, &c.GitHub.WebhookSecret, &c.LLM.APIKey,
		&c.Storage.DatabaseURL, &c.Storage.RedisURL,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return c
}
