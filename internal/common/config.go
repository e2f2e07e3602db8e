package common

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Status   StatusConfig   `yaml:"status"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// DatabaseConfig holds store-related configuration. A DSN starting with
// postgres:// opens a pgx pool; anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// PipelineConfig holds orchestrator and worker-queue configuration.
type PipelineConfig struct {
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	StageTimeout time.Duration `yaml:"stage_timeout"`
}

// StatusConfig holds status-channel configuration.
type StatusConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LLMConfig holds extraction-service configuration.
type LLMConfig struct {
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IngestConfig holds drop-directory watcher configuration.
type IngestConfig struct {
	WatchDir string        `yaml:"watch_dir"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoadConfig loads configuration from environment variables, then overlays
// the optional YAML file named by DESIGNWEEK_CONFIG.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "designweek.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:      getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:    getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
			StageTimeout: getEnvAsDuration("PIPELINE_STAGE_TIMEOUT", 3*time.Minute),
		},
		Status: StatusConfig{
			PollInterval: getEnvAsDuration("STATUS_POLL_INTERVAL", time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Ingest: IngestConfig{
			WatchDir: getEnv("INGEST_WATCH_DIR", ""),
			Debounce: getEnvAsDuration("INGEST_DEBOUNCE", 500*time.Millisecond),
		},
	}

	if path := os.Getenv("DESIGNWEEK_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(err, "read config file")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, WrapError(err, "parse config file")
		}
	}
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Status.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "STATUS_POLL_INTERVAL must be positive", ErrInvalidInput)
	}
	return nil
}
