// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are probed in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vidstream/config.yaml",
	"/etc/vidstream/config.yml",
}

const (
	// ConfigPathEnvVar points at an explicit YAML config file.
	ConfigPathEnvVar = "CONFIG_PATH"

	// DotEnvPathEnvVar overrides the .env file location.
	DotEnvPathEnvVar = "DOTENV_PATH"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute, // uploads stream through the handler
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:          DriverDuckDB,
			Path:            "/data/vidstream.duckdb",
			MaxMemory:       "1GB",
			Threads:         0, // runtime.NumCPU()
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Analytics: AnalyticsConfig{
			StoreTimeout:    5 * time.Second,
			ConflictRetries: 5,
		},
		Security: SecurityConfig{
			AuthMode:    "jwt",
			TokenTTL:    time.Hour,
			CORSOrigins: []string{},
		},
		Media: MediaConfig{
			Backend:         MediaBackendLocal,
			PublicBaseURL:   "http://localhost:8080/media",
			MaxUploadBytes:  2 << 30, // 2GB
			LocalDir:        "/data/media",
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
			S3: S3Config{
				Region:    "us-east-1",
				KeyPrefix: "videos/",
			},
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "vidstream",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			EmbeddedHost:  "127.0.0.1",
			EmbeddedPort:  4222,
			StoreDir:      "/data/nats",
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      30 * time.Second,
			InMemory: true,
			Dir:      "/data/cache",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf builds a Config from defaults, file, .env and environment.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv populates the process environment from a .env file if one
// exists. Variables that are already set win.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are keys whose env values arrive comma-separated.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Anything not listed is ignored so unrelated variables never leak in.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	"db_driver":            "database.driver",
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"database_url":         "database.dsn",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",

	"analytics_store_timeout":    "analytics.store_timeout",
	"analytics_conflict_retries": "analytics.conflict_retries",

	"auth_mode":    "security.auth_mode",
	"jwt_secret":   "security.jwt_secret",
	"jwt_issuer":   "security.jwt_issuer",
	"token_ttl":    "security.token_ttl",
	"cors_origins": "security.cors_origins",

	"media_backend":          "media.backend",
	"media_public_base_url":  "media.public_base_url",
	"media_max_upload_bytes": "media.max_upload_bytes",
	"media_local_dir":        "media.local_dir",
	"media_breaker_timeout":  "media.breaker_timeout",
	"media_breaker_failures": "media.breaker_failures",
	"s3_bucket":              "media.s3.bucket",
	"s3_region":              "media.s3.region",
	"s3_endpoint":            "media.s3.endpoint",
	"s3_access_key_id":       "media.s3.access_key_id",
	"s3_secret_access_key":   "media.s3.secret_access_key",
	"s3_use_path_style":      "media.s3.use_path_style",
	"s3_key_prefix":          "media.s3.key_prefix",

	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",
	"nats_embedded":       "nats.embedded_server",
	"nats_embedded_host":  "nats.embedded_host",
	"nats_embedded_port":  "nats.embedded_port",
	"nats_store_dir":      "nats.store_dir",

	"cache_enabled":   "cache.enabled",
	"cache_ttl":       "cache.ttl",
	"cache_in_memory": "cache.in_memory",
	"cache_dir":       "cache.dir",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped variables, which koanf skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
