// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package config loads and validates Vidstream configuration.
//
// Sources are layered with koanf, lowest priority first:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file from CONFIG_PATH or one of DefaultConfigPaths
//  3. A .env file in the working directory (never overrides real env vars)
//  4. Environment variables, mapped explicitly in envMappings
//
// Load returns a validated *Config or an error naming the offending
// environment variable.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Security  SecurityConfig  `koanf:"security"`
	Media     MediaConfig     `koanf:"media"`
	NATS      NATSConfig      `koanf:"nats"`
	Cache     CacheConfig     `koanf:"cache"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the relational store.
//
// DuckDB is an embedded single-process store: a file (or ":memory:") opened
// by exactly one server. Postgres is used when several replicas share one
// database; the uniqueness constraint then arbitrates between processes.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`

	// DuckDB
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`

	// Postgres
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// AnalyticsConfig bounds the view-counting path.
type AnalyticsConfig struct {
	// StoreTimeout caps every individual store call made by the service.
	StoreTimeout time.Duration `koanf:"store_timeout"`

	// ConflictRetries is how many times a DuckDB write is retried after an
	// optimistic transaction conflict.
	ConflictRetries int `koanf:"conflict_retries"`
}

// SecurityConfig covers token verification and CORS.
type SecurityConfig struct {
	AuthMode    string        `koanf:"auth_mode"`
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTIssuer   string        `koanf:"jwt_issuer"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// Media backends.
const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

// MediaConfig configures where uploaded video files go.
type MediaConfig struct {
	Backend        string `koanf:"backend"`
	PublicBaseURL  string `koanf:"public_base_url"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`

	LocalDir string `koanf:"local_dir"`

	S3 S3Config `koanf:"s3"`

	// BreakerTimeout is how long the media circuit stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
	// BreakerFailures is the consecutive failure count that opens the circuit.
	BreakerFailures uint32 `koanf:"breaker_failures"`
}

// S3Config targets AWS S3 or any S3-compatible store (MinIO, R2).
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
	KeyPrefix       string `koanf:"key_prefix"`
}

// NATSConfig controls domain event publishing.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedHost   string        `koanf:"embedded_host"`
	EmbeddedPort   int           `koanf:"embedded_port"`
	StoreDir       string        `koanf:"store_dir"`
}

// CacheConfig controls the badger-backed directory cache.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	TTL      time.Duration `koanf:"ttl"`
	InMemory bool          `koanf:"in_memory"`
	Dir      string        `koanf:"dir"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
