// Package config loads the pgj server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/pgdriver"
)

type Config struct {
	DatabaseURL  string // PGJ_DATABASE_URL (required)
	Driver       string // PGJ_DRIVER ("postgres" or "pgx", default "postgres")
	Encoder      string // PGJ_ENCODER (default "standard")
	UseNumber    bool   // PGJ_USE_NUMBER (decode numbers as json.Number)
	StrictDecode bool   // PGJ_STRICT_DECODE (malformed stored json is an error)
	SchemaFile   string // PGJ_SCHEMA_FILE (optional frozen TOML schema for the documents table)
	HTTPAddr     string // PGJ_HTTP_ADDR (default ":8080")
	NATSURL      string // PGJ_NATS_URL (optional, empty = no events)
	AuthToken    string // PGJ_AUTH_TOKEN (optional, empty = auth disabled)

	// Export settings
	ExportInterval   time.Duration // PGJ_EXPORT_INTERVAL (default 0 = disabled)
	ExportS3Bucket   string        // PGJ_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // PGJ_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // PGJ_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // PGJ_EXPORT_S3_KEY (default "pgjson/documents.jsonl")
	ExportGitRepo    string        // PGJ_EXPORT_GIT_REPO (enables git when set; path to clone)
	ExportGitFile    string        // PGJ_EXPORT_GIT_FILE (default "documents.jsonl")
	ExportGitBranch  string        // PGJ_EXPORT_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("PGJ_DATABASE_URL"),
		Driver:           envOrDefault("PGJ_DRIVER", pgdriver.DriverPQ),
		Encoder:          envOrDefault("PGJ_ENCODER", jsoncodec.DefaultEncoder),
		SchemaFile:       os.Getenv("PGJ_SCHEMA_FILE"),
		HTTPAddr:         envOrDefault("PGJ_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("PGJ_NATS_URL"),
		AuthToken:        os.Getenv("PGJ_AUTH_TOKEN"),
		ExportS3Bucket:   os.Getenv("PGJ_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("PGJ_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("PGJ_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("PGJ_EXPORT_S3_KEY", "pgjson/documents.jsonl"),
		ExportGitRepo:    os.Getenv("PGJ_EXPORT_GIT_REPO"),
		ExportGitFile:    envOrDefault("PGJ_EXPORT_GIT_FILE", "documents.jsonl"),
		ExportGitBranch:  envOrDefault("PGJ_EXPORT_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("PGJ_DATABASE_URL is required")
	}

	switch c.Driver {
	case pgdriver.DriverPQ, pgdriver.DriverPGX:
	default:
		return nil, fmt.Errorf("PGJ_DRIVER: %w %q", pgdriver.ErrUnknownDriver, c.Driver)
	}
	if _, err := jsoncodec.Lookup(c.Encoder); err != nil {
		return nil, fmt.Errorf("PGJ_ENCODER: %w", err)
	}

	var err error
	if c.UseNumber, err = envBool("PGJ_USE_NUMBER"); err != nil {
		return nil, err
	}
	if c.StrictDecode, err = envBool("PGJ_STRICT_DECODE"); err != nil {
		return nil, err
	}

	if s := os.Getenv("PGJ_EXPORT_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("PGJ_EXPORT_INTERVAL: %w", err)
		}
		c.ExportInterval = d
	}

	return c, nil
}

// Codec builds the codec described by Encoder and UseNumber.
func (c *Config) Codec() (*jsoncodec.Codec, error) {
	return jsoncodec.New(c.Encoder, c.UseNumber)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
