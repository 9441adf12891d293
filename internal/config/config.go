package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultDatabaseURL        = "filer.db"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultStorageBackend     = "local"
	defaultStorageDir         = "./media"
	defaultPublicBaseURL      = "/media"
	defaultMinioBucket        = "files"
	defaultBlobWriteTimeout   = "30s"
	defaultPolicyCacheTTL     = "5m"
	defaultAnonymousRetention = "720h"
	defaultGalleryPageSize    = "24"
	defaultDuplicatePolicy    = "allow"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"

	DuplicateAllow  = "allow"
	DuplicateReject = "reject"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string

	Storage StorageConfig
	NATSURL string

	BlobWriteTimeout   time.Duration
	PolicyCacheTTL     time.Duration
	AnonymousRetention time.Duration
	GalleryPageSize    int
	DuplicatePolicy    string

	CORSAllowedOrigins []string
}

type StorageConfig struct {
	Backend       string
	LocalDir      string
	PublicBaseURL string
	Minio         MinioConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.NATSURL = strings.TrimSpace(os.Getenv("NATS_URL"))

	cfg.Storage = StorageConfig{
		Backend:       strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend))),
		LocalDir:      strings.TrimSpace(getEnv("STORAGE_LOCAL_DIR", defaultStorageDir)),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/"),
		Minio: MinioConfig{
			Endpoint:  strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
			AccessKey: strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
			Bucket:    strings.TrimSpace(getEnv("MINIO_BUCKET", defaultMinioBucket)),
			UseSSL:    parseBoolEnv("MINIO_USE_SSL", "false"),
		},
	}

	var err error
	cfg.BlobWriteTimeout, err = parseDurationEnv("BLOB_WRITE_TIMEOUT", defaultBlobWriteTimeout)
	if err != nil {
		return nil, err
	}
	cfg.PolicyCacheTTL, err = parseDurationEnv("POLICY_CACHE_TTL", defaultPolicyCacheTTL)
	if err != nil {
		return nil, err
	}
	cfg.AnonymousRetention, err = parseDurationEnv("ANONYMOUS_RETENTION", defaultAnonymousRetention)
	if err != nil {
		return nil, err
	}
	cfg.GalleryPageSize, err = parseIntEnv("GALLERY_PAGE_SIZE", defaultGalleryPageSize)
	if err != nil {
		return nil, err
	}
	cfg.DuplicatePolicy = strings.ToLower(strings.TrimSpace(getEnv("DUPLICATE_POLICY", defaultDuplicatePolicy)))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s storage=%s nats=%t", cfg.AppEnv, cfg.HTTPAddr, cfg.Storage.Backend, cfg.NATSURL != "")

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.BlobWriteTimeout <= 0 {
		return fmt.Errorf("BLOB_WRITE_TIMEOUT must be > 0")
	}
	if cfg.PolicyCacheTTL <= 0 {
		return fmt.Errorf("POLICY_CACHE_TTL must be > 0")
	}
	if cfg.AnonymousRetention <= 0 {
		return fmt.Errorf("ANONYMOUS_RETENTION must be > 0")
	}
	if cfg.GalleryPageSize <= 0 || cfg.GalleryPageSize > 100 {
		return fmt.Errorf("GALLERY_PAGE_SIZE must be between 1 and 100")
	}
	if cfg.DuplicatePolicy != DuplicateAllow && cfg.DuplicatePolicy != DuplicateReject {
		return fmt.Errorf("DUPLICATE_POLICY must be one of: allow, reject")
	}

	switch cfg.Storage.Backend {
	case StorageLocal:
		if cfg.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR must not be empty")
		}
	case StorageMinio:
		m := cfg.Storage.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for minio storage")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: local, minio")
	}

	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
