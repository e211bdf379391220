package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Backend selections
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendOpenFGA  = "openfga"
	BackendLocal    = "local"
	BackendS3       = "s3"
	BackendAuth0    = "auth0"
	BackendStatic   = "static"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	LogDir      string // empty disables the log file
	LogMaxFiles int

	// Identity provider
	Auth0Domain       string
	Auth0Audience     string
	Auth0ClientID     string // Management API client, used by the auth0 directory
	Auth0ClientSecret string

	// Metadata store
	MetadataBackend string
	DatabaseURL     string
	TablePrefix     string
	BadgerPath      string

	// Blob store
	BlobBackend string
	BlobDir     string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3KeyPrefix string

	// Relation store
	AuthzBackend            string
	AuthzVisibilityDelay    time.Duration // memory backend only
	FGAAPIURL               string
	FGAStoreID              string
	FGAAuthorizationModelID string
	FGAAPITokenIssuer       string
	FGAAPIAudience          string
	FGAClientID             string
	FGAClientSecret         string

	// Directory
	DirectoryBackend string
	DirectoryFile    string

	MaxUploadBytes int64
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		Auth0Domain:       getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:     getEnv("AUTH0_AUDIENCE", ""),
		Auth0ClientID:     getEnv("AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret: getEnv("AUTH0_CLIENT_SECRET", ""),

		MetadataBackend: getEnv("METADATA_BACKEND", BackendMemory),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TablePrefix:     getTablePrefix(env),
		BadgerPath:      getEnv("BADGER_PATH", "./data/metadata"),

		BlobBackend: getEnv("BLOB_BACKEND", BackendLocal),
		BlobDir:     getEnv("BLOB_DIR", "./data/blobs"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3KeyPrefix: getEnv("S3_KEY_PREFIX", ""),

		AuthzBackend:            getEnv("AUTHZ_BACKEND", BackendMemory),
		AuthzVisibilityDelay:    getEnvDuration("AUTHZ_VISIBILITY_DELAY", 0),
		FGAAPIURL:               getEnv("FGA_API_URL", ""),
		FGAStoreID:              getEnv("FGA_STORE_ID", ""),
		FGAAuthorizationModelID: getEnv("FGA_AUTHORIZATION_MODEL_ID", ""),
		FGAAPITokenIssuer:       getEnv("FGA_API_TOKEN_ISSUER", ""),
		FGAAPIAudience:          getEnv("FGA_API_AUDIENCE", ""),
		FGAClientID:             getEnv("FGA_CLIENT_ID", ""),
		FGAClientSecret:         getEnv("FGA_CLIENT_SECRET", ""),

		DirectoryBackend: getEnv("DIRECTORY_BACKEND", BackendAuth0),
		DirectoryFile:    getEnv("DIRECTORY_FILE", ""),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
	}
}

// Validate checks backend selections and the settings each one needs.
func (c *Config) Validate() error {
	needsDB := c.MetadataBackend == BackendPostgres || c.AuthzBackend == BackendPostgres

	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&c.Auth0Domain, validation.Required),
		validation.Field(&c.Auth0Audience, validation.Required),

		validation.Field(&c.MetadataBackend, validation.In(BackendMemory, BackendBadger, BackendPostgres)),
		validation.Field(&c.DatabaseURL, validation.When(needsDB, validation.Required)),
		validation.Field(&c.BadgerPath, validation.When(c.MetadataBackend == BackendBadger, validation.Required)),

		validation.Field(&c.BlobBackend, validation.In(BackendLocal, BackendS3)),
		validation.Field(&c.BlobDir, validation.When(c.BlobBackend == BackendLocal, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.BlobBackend == BackendS3, validation.Required)),
		validation.Field(&c.S3Region, validation.When(c.BlobBackend == BackendS3, validation.Required)),

		validation.Field(&c.AuthzBackend, validation.In(BackendMemory, BackendPostgres, BackendOpenFGA)),
		validation.Field(&c.FGAAPIURL, validation.When(c.AuthzBackend == BackendOpenFGA, validation.Required, is.URL)),
		validation.Field(&c.FGAStoreID, validation.When(c.AuthzBackend == BackendOpenFGA, validation.Required)),
		validation.Field(&c.AuthzVisibilityDelay, validation.Min(time.Duration(0))),

		validation.Field(&c.DirectoryBackend, validation.In(BackendAuth0, BackendStatic)),
		validation.Field(&c.Auth0ClientID, validation.When(c.DirectoryBackend == BackendAuth0, validation.Required)),
		validation.Field(&c.Auth0ClientSecret, validation.When(c.DirectoryBackend == BackendAuth0, validation.Required)),
		validation.Field(&c.DirectoryFile, validation.When(c.DirectoryBackend == BackendStatic, validation.Required)),

		validation.Field(&c.MaxUploadBytes, validation.Min(int64(1))),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
}

// Auth0Issuer returns the issuer URL tokens must carry.
func (c *Config) Auth0Issuer() string {
	return "https://" + strings.TrimSuffix(strings.TrimPrefix(c.Auth0Domain, "https://"), "/") + "/"
}

// Auth0JWKSURL returns the tenant's key set endpoint.
func (c *Config) Auth0JWKSURL() string {
	return c.Auth0Issuer() + ".well-known/jwks.json"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}
