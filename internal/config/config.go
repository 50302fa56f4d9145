// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (INSIGHT_SERVER_PORT, ...).
const EnvPrefix = "INSIGHT"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig toggles zap development features.
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// LLMConfig selects the Gemini models per tier and the tier used for extraction.
type LLMConfig struct {
	Tier   string            `mapstructure:"tier"`
	Models map[string]string `mapstructure:"models"`
}

// GeminiConfig names the secret holding the server-side fallback API key.
type GeminiConfig struct {
	APIKeySecret string `mapstructure:"api_key_secret"`
}

// FetchConfig governs page retrieval.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	UseBrowser     bool          `mapstructure:"use_browser"`
	BrowserTimeout time.Duration `mapstructure:"browser_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// RedisConfig enables the page-text cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig controls access to the insight store.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DiscoveryConfig configures Google Custom Search based URL discovery.
type DiscoveryConfig struct {
	NumResults     int64  `mapstructure:"num_results"`
	DateRestrict   string `mapstructure:"date_restrict"`
	APIKeySecret   string `mapstructure:"api_key_secret"`
	EngineIDSecret string `mapstructure:"engine_id_secret"`
}

// OpenSearchConfig enables the keyword index when Addresses is non-empty.
type OpenSearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// SecretsConfig switches secret lookup to GCP Secret Manager when a project is set.
type SecretsConfig struct {
	GCPProject string `mapstructure:"gcp_project"`
}

// AuthConfig toggles bearer-token auth on the /api routes.
type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	JWTSecretName string        `mapstructure:"jwt_secret_name"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// RateLimitConfig bounds how often one client may start analysis runs.
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	AnalyzePerHour int  `mapstructure:"analyze_per_hour"`
	Burst          int  `mapstructure:"burst"`
}

// New returns a Viper instance with defaults, env binding and config search paths applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("insight")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.insight")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the optional config file (explicit path wins over search paths) and
// unmarshals the merged result. A missing config file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("log.development", false)
	v.SetDefault("llm.tier", "standard")
	v.SetDefault("llm.models", map[string]string{
		"lite":     "gemini-2.5-flash-lite",
		"standard": "gemini-2.5-flash",
		"advanced": "gemini-2.5-pro",
	})
	v.SetDefault("gemini.api_key_secret", "GEMINI_API_KEY")
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("fetch.use_browser", false)
	v.SetDefault("fetch.browser_timeout", 30*time.Second)
	v.SetDefault("fetch.cache_ttl", 6*time.Hour)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("discovery.num_results", 10)
	v.SetDefault("discovery.date_restrict", "d7")
	v.SetDefault("discovery.api_key_secret", "GOOGLE_API_KEY")
	v.SetDefault("discovery.engine_id_secret", "SEARCH_ENGINE_ID")
	v.SetDefault("opensearch.addresses", []string{})
	v.SetDefault("opensearch.username", "")
	v.SetDefault("opensearch.password", "")
	v.SetDefault("opensearch.index", "insights")
	v.SetDefault("secrets.gcp_project", "")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret_name", "JWT_SECRET")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.analyze_per_hour", 10)
	v.SetDefault("ratelimit.burst", 2)
}

// Validate enforces reasonable limits. Required-ness of the database and
// credentials is checked by the command that needs them.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: server.port must be between 1 and 65535")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("config error: fetch.timeout must be > 0")
	}
	if c.Fetch.UseBrowser && c.Fetch.BrowserTimeout <= 0 {
		return fmt.Errorf("config error: fetch.browser_timeout must be > 0 when fetch.use_browser is set")
	}
	if c.Discovery.NumResults < 1 || c.Discovery.NumResults > 10 {
		return fmt.Errorf("config error: discovery.num_results must be between 1 and 10")
	}
	if len(c.OpenSearch.Addresses) > 0 && c.OpenSearch.Index == "" {
		return fmt.Errorf("config error: opensearch.index is required when opensearch.addresses is set")
	}
	if c.RateLimit.Enabled && (c.RateLimit.AnalyzePerHour <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("config error: ratelimit.analyze_per_hour and ratelimit.burst must be > 0")
	}
	if c.Auth.Enabled && c.Auth.JWTSecretName == "" {
		return fmt.Errorf("config error: auth.jwt_secret_name is required when auth is enabled")
	}
	return nil
}
