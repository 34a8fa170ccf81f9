package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheDisk   = "disk"
	CacheRedis  = "redis"
)

// Config holds all configuration for the usage dashboard.
type Config struct {
	// Service identity
	ServiceName string `envconfig:"SERVICE_NAME" default:"usage-dashboard"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP server; Dokku injects PORT
	HTTPPort int `envconfig:"PORT" default:"5000"`

	// Google Analytics
	GACredentials     string `envconfig:"GA_CREDENTIALS"`
	GAAccountID       string `envconfig:"GA_ACCOUNT_ID" default:"12381236"`
	GAProperty        string `envconfig:"GA_PROPERTY" default:"desktop"`
	GAAppVersion      int    `envconfig:"GA_APP_VERSION" default:"11"`
	GAUserGroup       string `envconfig:"GA_USER_GROUP" default:"paid"`
	GAStrictRetention bool   `envconfig:"GA_STRICT_RETENTION" default:"false"`

	// Query cache
	CacheBackend    string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheOnDisk     bool          `envconfig:"GA_CACHE_DISK" default:"false"` // legacy switch, forces the disk backend
	CacheDir        string        `envconfig:"CACHE_DIR" default:".ga_cache"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	CacheMaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"1024"`
	RedisURL        string        `envconfig:"REDIS_URL"`

	// Snapshot persistence (disabled when empty)
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	SnapshotRetention int    `envconfig:"SNAPSHOT_RETENTION" default:"30"`

	// Scenery gateway
	GatewayStatsURL string        `envconfig:"GATEWAY_STATS_URL" default:"http://gateway.x-plane.com/apiv1/stats/by-month"`
	GatewayTimeout  time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`

	// Starting locations table
	LocationsStartDate string `envconfig:"LOCATIONS_START_DATE" default:"2019-04-01"`
	LocationsLimit     int    `envconfig:"LOCATIONS_LIMIT" default:"50"`

	// Refresh worker (cron expression)
	RefreshSchedule string `envconfig:"REFRESH_SCHEDULE" default:"@every 6h"`

	// S3-compatible object storage for report exports
	S3Endpoint         string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey        string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey        string        `envconfig:"S3_SECRET_KEY"`
	S3Bucket           string        `envconfig:"S3_BUCKET" default:"usage-reports"`
	S3Region           string        `envconfig:"S3_REGION" default:"us-east-1"`
	ExportSignedURLTTL time.Duration `envconfig:"EXPORT_SIGNED_URL_TTL" default:"24h"`

	// Observability
	TelemetryEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TelemetryProtocol string `envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc"`
	TelemetryInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`

	// Security
	EnableRBAC     bool   `envconfig:"ENABLE_RBAC" default:"true"`
	RBACPolicyFile string `envconfig:"RBAC_POLICY_FILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// CacheBackendName returns the effective query cache backend.
func (c *Config) CacheBackendName() string {
	if c.CacheOnDisk {
		return CacheDisk
	}
	return strings.ToLower(strings.TrimSpace(c.CacheBackend))
}

// S3Configured reports whether report exports can be uploaded.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.CacheBackendName() {
	case CacheMemory, CacheDisk:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, disk, redis, got %q", c.CacheBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.CacheMaxEntries)
	}
	if c.GAAppVersion != 10 && c.GAAppVersion != 11 {
		return fmt.Errorf("GA_APP_VERSION must be 10 or 11, got %d", c.GAAppVersion)
	}
	switch strings.ToLower(c.GAUserGroup) {
	case "all", "paid", "demo":
	default:
		return fmt.Errorf("GA_USER_GROUP must be one of all, paid, demo, got %q", c.GAUserGroup)
	}
	if c.LocationsLimit <= 0 {
		return fmt.Errorf("LOCATIONS_LIMIT must be positive, got %d", c.LocationsLimit)
	}
	if _, err := time.Parse("2006-01-02", c.LocationsStartDate); err != nil {
		return fmt.Errorf("LOCATIONS_START_DATE must be YYYY-MM-DD: %w", err)
	}
	if c.SnapshotRetention <= 0 {
		return fmt.Errorf("SNAPSHOT_RETENTION must be positive, got %d", c.SnapshotRetention)
	}
	if strings.TrimSpace(c.RefreshSchedule) == "" {
		return fmt.Errorf("REFRESH_SCHEDULE is required")
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		return fmt.Errorf("REFRESH_SCHEDULE %q is not a valid cron expression: %w", c.RefreshSchedule, err)
	}
	return nil
}
