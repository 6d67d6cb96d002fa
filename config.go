package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"BKSH_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"BKSH_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"BKSH_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"BKSH_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"BKSH_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" envconfig:"BKSH_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" envconfig:"BKSH_LOG_MAX_SIZE"`
	ProfilerEnable     bool          `yaml:"profiler_enable" envconfig:"BKSH_PROFILER_ENABLE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"BKSH_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Catalog            CatalogConfig `yaml:"catalog"`
	Storage            StorageConfig `yaml:"storage"`
	Redis              RedisConfig   `yaml:"redis"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
	SQLite             SQLiteConfig  `yaml:"sqlite"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKSH_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BKSH_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKSH_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKSH_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKSH_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKSH_SERVER_SHUTDOWN_TIMEOUT"`
}

type CatalogConfig struct {
	BaseURL       string        `yaml:"base_url" envconfig:"BKSH_CATALOG_BASE_URL"`
	CoversBaseURL string        `yaml:"covers_base_url" envconfig:"BKSH_CATALOG_COVERS_BASE_URL"`
	Limit         int           `yaml:"limit" envconfig:"BKSH_CATALOG_LIMIT"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"BKSH_CATALOG_TIMEOUT"`
	UserAgent     string        `yaml:"user_agent" envconfig:"BKSH_CATALOG_USER_AGENT"`
	RatePerSec    float64       `yaml:"rate_per_sec" envconfig:"BKSH_CATALOG_RATE_PER_SEC"`
	Burst         int           `yaml:"burst" envconfig:"BKSH_CATALOG_BURST"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend" envconfig:"BKSH_STORAGE_BACKEND"` // redis, bolt or sqlite
	Queue     string `yaml:"queue" envconfig:"BKSH_STORAGE_QUEUE"`     // memory or redis
	Key       string `yaml:"key" envconfig:"BKSH_STORAGE_KEY"`
	QueueSize int    `yaml:"queue_size" envconfig:"BKSH_STORAGE_QUEUE_SIZE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKSH_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKSH_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKSH_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKSH_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKSH_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKSH_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKSH_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKSH_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKSH_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKSH_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKSH_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKSH_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKSH_BOLTDB_BUCKET_NAME"`
}

type SQLiteConfig struct {
	FilePath string `yaml:"filepath" envconfig:"BKSH_SQLITE_FILE_PATH"`
}

const (
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	QueueMemory   = "memory"
	QueueRedis    = "redis"

	DefaultCatalogBaseURL = "https://openlibrary.org/search.json"
	DefaultStorageKey     = "BOOKSHELF_STORAGE_KEY"
	MaxCatalogLimit       = 10
)

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Catalog.BaseURL == "" {
		config.Catalog.BaseURL = DefaultCatalogBaseURL
	}

	if config.Catalog.CoversBaseURL == "" {
		config.Catalog.CoversBaseURL = DefaultCoversBaseURL
	}

	if config.Catalog.Limit <= 0 || config.Catalog.Limit > MaxCatalogLimit {
		config.Catalog.Limit = MaxCatalogLimit
	}

	if config.Catalog.Timeout <= 0 {
		config.Catalog.Timeout = 10 * time.Second
	}

	if config.Catalog.Burst <= 0 {
		config.Catalog.Burst = 1
	}

	if config.Storage.Key == "" {
		config.Storage.Key = DefaultStorageKey
	}

	if config.Storage.QueueSize <= 0 {
		config.Storage.QueueSize = 64
	}

	switch config.Storage.Backend {
	case "":
		config.Storage.Backend = BackendBolt
	case BackendRedis, BackendBolt, BackendSQLite:
	default:
		return fmt.Errorf("unsupported storage backend %q", config.Storage.Backend)
	}

	switch config.Storage.Queue {
	case "":
		config.Storage.Queue = QueueMemory
	case QueueMemory, QueueRedis:
	default:
		return fmt.Errorf("unsupported storage queue %q", config.Storage.Queue)
	}

	if config.UsesRedis() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Storage.Backend == BackendBolt && (config.BoltDB.FilePath == "" || config.BoltDB.BucketName == "") {
		return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
	}

	if config.Storage.Backend == BackendSQLite && config.SQLite.FilePath == "" {
		return errors.New("make sure to set valid sqlite file path in configuration file")
	}

	return nil
}

// UsesRedis tells if a redis connection is needed by the storage or the queue.
func (c *Config) UsesRedis() bool {
	return c.Storage.Backend == BackendRedis || c.Storage.Queue == QueueRedis
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// The env file is optional.
	if _, serr := os.Stat("./config.env"); serr == nil {
		if err = godotenv.Load("./config.env"); err != nil {
			return config, fmt.Errorf("failed to set environment configurations: %s", err)
		}
	}

	// Use environment variables with prefix `BKSH`.
	err = LoadConfigEnvs("BKSH", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
