package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Cache TTL bounds
const (
	MinCacheTTL = 300 * time.Second
	MaxCacheTTL = 600 * time.Second
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Cache     CacheConfig
	Documents DocumentsConfig
	Storage   StorageConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string // postgres, sqlite, memory
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowThreshold   time.Duration
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string // pub/sub channel for refresh hints
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig holds entity cache configuration
type CacheConfig struct {
	Backend      string
	Size         int // max entries per entity partition (memory backend)
	KeyPrefix    string
	CustomerTTL  time.Duration
	InventoryTTL time.Duration
	SaleTTL      time.Duration
	ServiceTTL   time.Duration
	InvoiceTTL   time.Duration
	ExpenseTTL   time.Duration
}

// DocumentsConfig holds document dispatch and reconciliation settings
type DocumentsConfig struct {
	Timeout              time.Duration
	MaxAttempts          int
	InitialBackoff       time.Duration
	ReconcileEnabled     bool
	ReconcileInterval    time.Duration
	ReconcileBatch       int
	ReconcileConcurrency int
	DriftAuditInterval   time.Duration
}

// StorageConfig holds attachment object storage settings
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	Enabled     bool
	DedupWindow time.Duration // how long a handled event key is remembered
	DedupSize   int           // keys kept by the in-process dedup store
}

// TelemetryConfig holds OpenTelemetry metrics export settings
type TelemetryConfig struct {
	MetricsEnabled    bool
	TracingEnabled    bool
	LogsEnabled       bool
	SamplingRatio     float64
	CollectorEndpoint string
	ExportInterval    time.Duration
	Insecure          bool

	ProfilingEnabled bool
	ProfilingServer  string
	ProfileLocks     bool
}

// HTTPConfig holds the operations endpoint settings
type HTTPConfig struct {
	Enabled         bool
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds the bearer token settings of the operations endpoint.
// An empty secret turns token checks off.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	TokenTTL    time.Duration
}

// Enabled reports whether requests must carry a token
func (a AuthConfig) Enabled() bool {
	return a.TokenSecret != ""
}

// Load reads configuration from config.toml and SHOP_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/chronoshop")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("audit.enabled", true)
	v.SetDefault("documents.reconcile_enabled", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("http.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Cache: CacheConfig{
			Backend:      strings.ToLower(v.GetString("cache.backend")),
			Size:         v.GetInt("cache.size"),
			KeyPrefix:    v.GetString("cache.key_prefix"),
			CustomerTTL:  v.GetDuration("cache.customer_ttl"),
			InventoryTTL: v.GetDuration("cache.inventory_ttl"),
			SaleTTL:      v.GetDuration("cache.sale_ttl"),
			ServiceTTL:   v.GetDuration("cache.service_ttl"),
			InvoiceTTL:   v.GetDuration("cache.invoice_ttl"),
			ExpenseTTL:   v.GetDuration("cache.expense_ttl"),
		},
		Documents: DocumentsConfig{
			Timeout:              v.GetDuration("documents.timeout"),
			MaxAttempts:          v.GetInt("documents.max_attempts"),
			InitialBackoff:       v.GetDuration("documents.initial_backoff"),
			ReconcileEnabled:     v.GetBool("documents.reconcile_enabled"),
			ReconcileInterval:    v.GetDuration("documents.reconcile_interval"),
			ReconcileBatch:       v.GetInt("documents.reconcile_batch"),
			ReconcileConcurrency: v.GetInt("documents.reconcile_concurrency"),
			DriftAuditInterval:   v.GetDuration("documents.drift_audit_interval"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			Prefix:       v.GetString("storage.prefix"),
		},
		Audit: AuditConfig{
			Enabled:     v.GetBool("audit.enabled"),
			DedupWindow: v.GetDuration("audit.dedup_window"),
			DedupSize:   v.GetInt("audit.dedup_size"),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			TracingEnabled:    v.GetBool("telemetry.tracing_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
			ProfileLocks:      v.GetBool("telemetry.profile_locks"),
		},
		HTTP: HTTPConfig{
			Enabled:         v.GetBool("http.enabled"),
			Port:            v.GetString("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Auth: AuthConfig{
			TokenSecret: v.GetString("auth.token_secret"),
			Issuer:      v.GetString("auth.issuer"),
			TokenTTL:    v.GetDuration("auth.token_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "chronoshop"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "chronoshop"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "chronoshop.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "chronoshop:refresh"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 1024
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "chronoshop:cache:"
	}
	if cfg.Cache.CustomerTTL == 0 {
		cfg.Cache.CustomerTTL = 300 * time.Second
	}
	if cfg.Cache.InventoryTTL == 0 {
		cfg.Cache.InventoryTTL = 300 * time.Second
	}
	if cfg.Cache.SaleTTL == 0 {
		cfg.Cache.SaleTTL = 600 * time.Second
	}
	if cfg.Cache.ServiceTTL == 0 {
		cfg.Cache.ServiceTTL = 600 * time.Second
	}
	if cfg.Cache.InvoiceTTL == 0 {
		cfg.Cache.InvoiceTTL = 600 * time.Second
	}
	if cfg.Cache.ExpenseTTL == 0 {
		cfg.Cache.ExpenseTTL = 600 * time.Second
	}
	if cfg.Documents.Timeout == 0 {
		cfg.Documents.Timeout = 10 * time.Second
	}
	if cfg.Documents.MaxAttempts == 0 {
		cfg.Documents.MaxAttempts = 3
	}
	if cfg.Documents.InitialBackoff == 0 {
		cfg.Documents.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.Documents.ReconcileInterval == 0 {
		cfg.Documents.ReconcileInterval = time.Minute
	}
	if cfg.Documents.ReconcileBatch == 0 {
		cfg.Documents.ReconcileBatch = 50
	}
	if cfg.Documents.ReconcileConcurrency == 0 {
		cfg.Documents.ReconcileConcurrency = 4
	}
	if cfg.Documents.DriftAuditInterval == 0 {
		cfg.Documents.DriftAuditInterval = 6 * time.Hour
	}
	if cfg.Audit.DedupWindow == 0 {
		cfg.Audit.DedupWindow = 10 * time.Minute
	}
	if cfg.Audit.DedupSize == 0 {
		cfg.Audit.DedupSize = 4096
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "attachments/"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.ProfilingServer == "" {
		cfg.Telemetry.ProfilingServer = "http://localhost:4040"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.App.Name
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 8 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("cache.backend=redis requires redis.enabled=true")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive")
	}
	for name, ttl := range c.Cache.TTLs() {
		if ttl < MinCacheTTL || ttl > MaxCacheTTL {
			return fmt.Errorf("cache.%s_ttl must be between %s and %s, got %s", name, MinCacheTTL, MaxCacheTTL, ttl)
		}
	}

	if c.Documents.Timeout <= 0 {
		return fmt.Errorf("documents.timeout must be positive")
	}
	if c.Documents.MaxAttempts <= 0 {
		return fmt.Errorf("documents.max_attempts must be positive")
	}
	if c.Documents.ReconcileConcurrency <= 0 {
		return fmt.Errorf("documents.reconcile_concurrency must be positive")
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == DriverMemory {
			return fmt.Errorf("database.driver=memory is not allowed in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.HTTP.Enabled && !c.Auth.Enabled() {
			return fmt.Errorf("auth.token_secret is required in production while http is enabled")
		}
	}

	return nil
}

// TTLs returns the cache TTL per entity name
func (c CacheConfig) TTLs() map[string]time.Duration {
	return map[string]time.Duration{
		"customer":       c.CustomerTTL,
		"inventory_item": c.InventoryTTL,
		"sale":           c.SaleTTL,
		"service":        c.ServiceTTL,
		"invoice":        c.InvoiceTTL,
		"expense":        c.ExpenseTTL,
	}
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
