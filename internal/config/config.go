package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	DBMaxConns  int
	RedisURL    string
	// RealtimeBackend selects the change feed: "redis" or "postgres".
	RealtimeBackend string
	JWTSecret       string
	SyncStrategy    string

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Meilisearch
	MeiliURL       string
	MeiliMasterKey string

	// Completion backend
	GeminiAPIKey string
	GeminiModel  string

	// OfflineAccessToken is the shared sign-in token when no database is set.
	OfflineAccessToken string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: no .env file loaded, using process environment")
	}

	return Config{
		Addr:            getenv("API_ADDR", ":8080"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		DBMaxConns:      getenvInt("DB_MAX_OPEN_CONNS", 20),
		RedisURL:        getenv("REDIS_URL", ""),
		RealtimeBackend: strings.ToLower(getenv("REALTIME_BACKEND", "redis")),
		JWTSecret:       getenv("JWT_SECRET", ""),
		SyncStrategy:    strings.ToLower(getenv("SYNC_STRATEGY", "replace")),
		MinioEndpoint:   getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getenv("MINIO_BUCKET", MediaBucket),
		MinioUseSSL:     getenvBool("MINIO_USE_SSL", false),
		MeiliURL:        getenv("MEILI_URL", ""),
		MeiliMasterKey:  getenv("MEILI_MASTER_KEY", ""),
		GeminiAPIKey:    getenv("GEMINI_API_KEY", ""),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),

		OfflineAccessToken: getenv("OFFLINE_ACCESS_TOKEN", ""),
	}
}

// DevJWTSecret signs tokens for an offline server started without JWT_SECRET.
const DevJWTSecret = "forensiai-dev-secret"

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set when DATABASE_URL is configured")

// Validate checks settings the server cannot run without. An offline
// server may fall back to DevJWTSecret; a connected one may not.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) != "" {
		return nil
	}
	if !c.Offline() {
		return ErrMissingJWTSecret
	}
	log.Println("WARNING: JWT_SECRET not set, signing tokens with the built-in development secret. Anyone can forge them.")
	c.JWTSecret = DevJWTSecret
	return nil
}

// Offline reports whether no remote store is configured.
func (c Config) Offline() bool {
	return strings.TrimSpace(c.DatabaseURL) == ""
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
