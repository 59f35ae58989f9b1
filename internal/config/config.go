// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/curation-cli/internal/autosave"
	"github.com/sells-group/curation-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Similarity SimilarityConfig `yaml:"similarity" mapstructure:"similarity"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Annotator  AnnotatorConfig  `yaml:"annotator" mapstructure:"annotator"`
	Autosave   autosave.Config  `yaml:"autosave" mapstructure:"autosave"`
	Registry   RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the review API server.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	AssetsBaseURL string   `yaml:"assets_base_url" mapstructure:"assets_base_url"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// SimilarityConfig configures the external comparison service client.
type SimilarityConfig struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	Key             string  `yaml:"key" mapstructure:"key"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	IncludeDiagonal bool    `yaml:"include_diagonal" mapstructure:"include_diagonal"`
}

// NotionConfig holds the optional field-registry override database.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	FieldDB string `yaml:"field_db" mapstructure:"field_db"`
}

// AnnotatorConfig configures the Claude-based annotation backfill.
type AnnotatorConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MinSource int    `yaml:"min_sources" mapstructure:"min_sources"`
}

// RegistryConfig points at the optional YAML field definitions.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ImportConfig configures annotation drop ingestion.
type ImportConfig struct {
	MaxConcurrentItems int           `yaml:"max_concurrent_items" mapstructure:"max_concurrent_items"`
	FTPTimeout         time.Duration `yaml:"ftp_timeout" mapstructure:"ftp_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CURATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "curation.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.assets_base_url", "/assets")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("similarity.requests_per_sec", 5)
	v.SetDefault("similarity.include_diagonal", true)
	v.SetDefault("annotator.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("annotator.min_sources", 2)
	v.SetDefault("autosave.autosave_interval", "30s")
	v.SetDefault("autosave.keepalive_interval", "60s")
	v.SetDefault("autosave.activity_window", "45s")
	v.SetDefault("autosave.activity_debounce", "5s")
	v.SetDefault("import.max_concurrent_items", 5)
	v.SetDefault("import.ftp_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
