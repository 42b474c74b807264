package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	DefaultPort          = 3100
	DefaultModel         = "BAAI/bge-base-en-v1.5"
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultWorkers       = 4
	DefaultModelCacheDir = "./.fastembed_cache"
	DefaultMetricsPath   = "/metrics"
	DefaultCleanupCron   = "0 3 * * *"
)

type Config struct {
	Port          int              `json:"port"`
	BasePath      string           `json:"base_path"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Model         ModelConfig      `json:"model"`
	Chunk         ChunkConfig      `json:"chunk"`
	Inference     InferenceConfig  `json:"inference"`
	ModelCacheDir string           `json:"model_cache_dir"`
	ArtifactS3    S3Config         `json:"artifact_s3"`
	Cache         CacheConfig      `json:"cache"`
	Database      DatabaseConfig   `json:"database"`
	Auth          AuthConfig       `json:"auth"`
	Metrics       MetricsConfig    `json:"metrics"`
}

type ModelConfig struct {
	Name   string             `json:"name"`
	Custom *CustomModelConfig `json:"custom"`
}

// CustomModelConfig describes a user supplied model. Every file location is a
// local path, file://, http(s):// or s3://bucket/key.
type CustomModelConfig struct {
	Name        string          `json:"name"`
	Dimension   int             `json:"dimension"`
	Description string          `json:"description"`
	Backend     string          `json:"backend"`
	RemoteModel string          `json:"remote_model"`
	Files       ModelFileConfig `json:"files"`
}

type ModelFileConfig struct {
	OnnxFile             string `json:"onnx_file"`
	TokenizerFile        string `json:"tokenizer_file"`
	ConfigFile           string `json:"config_file"`
	SpecialTokensMapFile string `json:"special_tokens_map_file"`
	TokenizerConfigFile  string `json:"tokenizer_config_file"`
}

type ChunkConfig struct {
	Size          int  `json:"size"`
	Overlap       int  `json:"overlap"`
	StripMarkdown bool `json:"strip_markdown"`
}

type InferenceConfig struct {
	Backends     map[string]BackendConfig `json:"backends"`
	Workers      int                      `json:"workers"`
	Timeout      int                      `json:"timeout"`
	VerifyOnLoad *bool                    `json:"verify_on_load"`
}

// BackendConfig describes one inference backend instance. Fallbacks name other
// backends serving the same models, tried in order when this one fails.
type BackendConfig struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Fallbacks []string    `json:"fallbacks"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

type CacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLSeconds int    `json:"lru_ttl_seconds"`
	DBEnabled     bool   `json:"db_enabled"`
	CleanupCron   string `json:"cleanup_cron"`
	MaxAgeDays    int    `json:"max_age_days"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AuthConfig struct {
	APIKeyHashes            []string `json:"api_key_hashes"`
	AdminJWTSecret          string   `json:"admin_jwt_secret"`
	SetModelIntervalSeconds int      `json:"set_model_interval_seconds"`
}

type MetricsConfig struct {
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path"`
	ServiceName string `json:"service_name"`
}

func (c InferenceConfig) ShouldVerify() bool {
	return c.VerifyOnLoad == nil || *c.VerifyOnLoad
}

func (c DatabaseConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.BasePath == "" {
		c.BasePath = "/"
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.Model.Custom == nil && strings.TrimSpace(c.Model.Name) == "" {
		c.Model.Name = DefaultModel
	}
	if c.Model.Custom != nil {
		custom := c.Model.Custom
		if custom.Name == "" {
			return fmt.Errorf("model.custom.name is required")
		}
		if custom.Dimension <= 0 {
			return fmt.Errorf("model.custom.dimension must be positive")
		}
		if custom.Backend == "" {
			return fmt.Errorf("model.custom.backend is required")
		}
		files := custom.Files
		if files.OnnxFile == "" || files.TokenizerFile == "" || files.ConfigFile == "" ||
			files.SpecialTokensMapFile == "" || files.TokenizerConfigFile == "" {
			return fmt.Errorf("model.custom.files onnx/tokenizer/config/special_tokens_map/tokenizer_config are required")
		}
	}
	if c.Chunk.Size == 0 {
		c.Chunk.Size = DefaultChunkSize
		if c.Chunk.Overlap == 0 {
			c.Chunk.Overlap = DefaultChunkOverlap
		}
	}
	if c.Chunk.Size < 0 {
		return fmt.Errorf("chunk.size must be positive")
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, chunk.size)")
	}
	if c.Inference.Workers <= 0 {
		c.Inference.Workers = DefaultWorkers
	}
	if c.Inference.Timeout < 0 {
		return fmt.Errorf("inference.timeout must not be negative")
	}
	for name, backend := range c.Inference.Backends {
		if strings.TrimSpace(backend.Type) == "" {
			return fmt.Errorf("inference.backends.%s.type is required", name)
		}
		for _, fb := range backend.Fallbacks {
			if _, ok := c.Inference.Backends[fb]; !ok || fb == name {
				return fmt.Errorf("inference.backends.%s.fallbacks: unknown backend %q", name, fb)
			}
		}
	}
	if c.ModelCacheDir == "" {
		c.ModelCacheDir = DefaultModelCacheDir
	}
	if c.Cache.DBEnabled && !c.Database.Enabled() {
		return fmt.Errorf("cache.db_enabled requires database.dsn or database.host")
	}
	if c.Cache.CleanupCron == "" {
		c.Cache.CleanupCron = DefaultCleanupCron
	}
	if c.Cache.MaxAgeDays <= 0 {
		c.Cache.MaxAgeDays = 30
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "embedserver"
	}
	return nil
}
