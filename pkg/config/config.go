package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
		MaxAgeDays int    `yaml:"max_age_days" default:"14" validate:"gte=0"`
	} `yaml:"log"`
	Paths struct {
		RawDir       string `yaml:"raw_dir" default:"data/raw" validate:"required"`
		ProcessedDir string `yaml:"processed_dir" default:"data/processed" validate:"required"`
	} `yaml:"paths"`
	Ingest struct {
		PricesIndexURL    string        `yaml:"prices_index_url" default:"https://nemweb.com.au/Reports/Current/Public_Prices/" validate:"required,url"`
		EmissionsIndexURL string        `yaml:"emissions_index_url" default:"https://nemweb.com.au/Reports/Current/IBEI/" validate:"required,url"`
		Timeout           time.Duration `yaml:"timeout" default:"120s"`
		Retries           int           `yaml:"retries" default:"3" validate:"gte=0,lte=10"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"4" validate:"gt=0"`
		Burst             int           `yaml:"burst" default:"2" validate:"gte=1"`
		UserAgent         string        `yaml:"user_agent" default:"GridPulse/1.0"`
	} `yaml:"ingest"`
	Clean struct {
		PriceFloor       float64  `yaml:"price_floor" default:"-1000"`
		PriceRegions     []string `yaml:"price_regions" validate:"dive,required"`
		EmissionsRegions []string `yaml:"emissions_regions" validate:"dive,required"`
	} `yaml:"clean"`
	Features struct {
		Window           int     `yaml:"window" default:"7" validate:"gte=2"`
		MinPeriods       int     `yaml:"min_periods" default:"7" validate:"gte=2,ltefield=Window"`
		AnomalyThreshold float64 `yaml:"anomaly_threshold" default:"3.0" validate:"gt=0"`
		TrendMinPeriods  int     `yaml:"trend_min_periods" default:"3" validate:"gte=1,ltefield=Window"`
	} `yaml:"features"`
	Explain struct {
		Enabled  bool          `yaml:"enabled"`
		Region   string        `yaml:"region" default:"NSW1" validate:"oneof=NSW1 QLD1 VIC1 SA1 TAS1"`
		Rows     int           `yaml:"rows" default:"6" validate:"gte=1,lte=288"`
		Model    string        `yaml:"model" default:"gemini-2.5-flash"`
		BaseURL  string        `yaml:"base_url" default:"https://generativelanguage.googleapis.com" validate:"url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" default:"60s"`
		Retries  int           `yaml:"retries" default:"2" validate:"gte=0"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"6h"`
	} `yaml:"explain"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"gridpulse"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"10s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"60s"`
		BatchSize   int           `yaml:"batch_size" default:"2000" validate:"gte=1"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"nem.price.anomalies"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"gridpulse:"`
	} `yaml:"redis"`
	S3 struct {
		Enabled   bool   `yaml:"enabled"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region" default:"ap-southeast-2"`
		Endpoint  string `yaml:"endpoint"`
		Prefix    string `yaml:"prefix" default:"nem"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"s3"`
	Parquet struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"parquet"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Path     string `yaml:"path" default:"/metrics"`
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = c.applyDefaults()
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (when present), then config from YAML, then
// overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Clean.PriceRegions) == 0 {
		c.Clean.PriceRegions = []string{"NSW1", "QLD1", "VIC1", "SA1", "TAS1"}
	}
	if len(c.Clean.EmissionsRegions) == 0 {
		c.Clean.EmissionsRegions = append(append([]string{}, c.Clean.PriceRegions...), "NEM")
	}
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Explain.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Paths.RawDir = filepath.Join(v, "raw")
		c.Paths.ProcessedDir = filepath.Join(v, "processed")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3 is enabled")
	}
	return nil
}
