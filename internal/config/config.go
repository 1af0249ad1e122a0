package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is the placeholder secret. Admin routes stay off while it
// is in use.
const DefaultJWTSecret = "supersecret_change_me"

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string // json or console
	GELFAddr  string

	// Persistence
	StoreBackend string // "", local, github, database
	DataDir      string
	WriteRetries int
	CacheTTL     time.Duration

	GitHubToken   string
	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	GitHubPath    string
	GitHubAPIURL  string
	GitHubTimeout time.Duration

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Rendering
	DocxEngine          string // ooxml, pandoc, none
	PandocPath          string
	PandocReferenceDocx string
	PandocTimeout       time.Duration
	SchemaDir           string

	// Admin API
	AdminPassword string
	JWTSecret     string
	JWTExpiresIn  string // minutes
}

func Load() *Config {
	return &Config{
		Port:      getenv("PORT", "8080"),
		GinMode:   getenv("GIN_MODE", "release"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
		GELFAddr:  getenv("GELF_ADDR", ""),

		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", "")),
		DataDir:      getenv("DATA_DIR", "data"),
		WriteRetries: getint("WRITE_RETRIES", 3),
		CacheTTL:     getduration("CACHE_TTL", 10*time.Second),

		GitHubToken:   getenv("GITHUB_TOKEN", ""),
		GitHubOwner:   getenv("GITHUB_OWNER", ""),
		GitHubRepo:    getenv("GITHUB_REPO", ""),
		GitHubBranch:  getenv("GITHUB_BRANCH", "main"),
		GitHubPath:    getenv("GITHUB_PATH", "data/submissions.jsonl"),
		GitHubAPIURL:  getenv("GITHUB_API_URL", ""),
		GitHubTimeout: getduration("GITHUB_TIMEOUT", 15*time.Second),

		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "docgen"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		DBPath:     getenv("DB_PATH", "data/docgen.db"),

		DocxEngine:          strings.ToLower(getenv("DOCX_ENGINE", "ooxml")),
		PandocPath:          getenv("PANDOC_PATH", "pandoc"),
		PandocReferenceDocx: getenv("PANDOC_REFERENCE_DOCX", ""),
		PandocTimeout:       getduration("PANDOC_TIMEOUT", 30*time.Second),
		SchemaDir:           getenv("SCHEMA_DIR", ""),

		AdminPassword: getenv("ADMIN_PASSWORD", ""),
		JWTSecret:     getenv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiresIn:  getenv("JWT_EXPIRES_IN", "60"),
	}
}

// AdminEnabled reports whether the admin API may be served: a password is set
// and the token secret is not the placeholder.
func (c *Config) AdminEnabled() bool {
	return c.AdminPassword != "" && c.JWTSecret != "" && c.JWTSecret != DefaultJWTSecret
}

// JWTTTL parses JWTExpiresIn as minutes, defaulting to one hour.
func (c *Config) JWTTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiresIn + "m")
	if err != nil || d <= 0 {
		return 60 * time.Minute
	}
	return d
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getint(key string, fallback int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(key, ""))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
