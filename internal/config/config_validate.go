// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateAnalytics,
		c.validateSecurity,
		c.validateMedia,
		c.validateNATS,
		c.validateCache,
		c.validateAPI,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER is duckdb")
		}
		if c.Database.Threads < 0 {
			return fmt.Errorf("DUCKDB_THREADS must not be negative")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is postgres")
		}
		if !strings.HasPrefix(c.Database.DSN, "postgres://") && !strings.HasPrefix(c.Database.DSN, "postgresql://") {
			return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
		}
		if c.Database.MaxOpenConns < 1 {
			return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, postgres")
	}
	return nil
}

const (
	minStoreTimeout = 100 * time.Millisecond
	maxStoreTimeout = time.Minute
)

func (c *Config) validateAnalytics() error {
	if c.Analytics.StoreTimeout < minStoreTimeout || c.Analytics.StoreTimeout > maxStoreTimeout {
		return fmt.Errorf("ANALYTICS_STORE_TIMEOUT must be between %v and %v", minStoreTimeout, maxStoreTimeout)
	}
	if c.Analytics.ConflictRetries < 1 || c.Analytics.ConflictRetries > 20 {
		return fmt.Errorf("ANALYTICS_CONFLICT_RETRIES must be between 1 and 20")
	}
	return nil
}

var validAuthModes = map[string]bool{
	"jwt":  true,
	"none": true,
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}
	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}
	if c.IsProduction() && c.Security.AuthMode != "none" {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS=* is not allowed in production with authentication enabled")
			}
		}
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value; generate one with: openssl rand -base64 32")
	}
	return nil
}

var placeholders = []string{"changeme", "change_me", "replace_me", "your_secret", "your-secret", "example", "placeholder"}

func containsPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (c *Config) validateMedia() error {
	if err := validateHTTPURL(c.Media.PublicBaseURL, "MEDIA_PUBLIC_BASE_URL"); err != nil {
		return err
	}
	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Media.BreakerFailures == 0 {
		return fmt.Errorf("MEDIA_BREAKER_FAILURES must be at least 1")
	}

	switch c.Media.Backend {
	case MediaBackendLocal:
		if c.Media.LocalDir == "" {
			return fmt.Errorf("MEDIA_LOCAL_DIR is required when MEDIA_BACKEND is local")
		}
	case MediaBackendS3:
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND is s3")
		}
		if c.Media.S3.Region == "" {
			return fmt.Errorf("S3_REGION is required when MEDIA_BACKEND is s3")
		}
		if c.Media.S3.Endpoint != "" {
			if err := validateHTTPURL(c.Media.S3.Endpoint, "S3_ENDPOINT"); err != nil {
				return err
			}
		}
		if (c.Media.S3.AccessKeyID == "") != (c.Media.S3.SecretAccessKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be one of: local, s3")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be a non-empty subject token without spaces or wildcards")
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.EmbeddedPort < 1 || c.NATS.EmbeddedPort > 65535 {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
		}
		if c.NATS.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED is true")
		}
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL %w", err)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when the cache is enabled")
	}
	if !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("CACHE_DIR is required when CACHE_IN_MEMORY is false")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1 and not exceed API_MAX_PAGE_SIZE")
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction reports ENVIRONMENT=production (or prod).
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}
