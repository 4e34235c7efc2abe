package config

import (
	"os"
	"strconv"
	"strings"

	"goattend/internal/errors"
)

// Column matching modes for the layout mapper
const (
	MatchPositional = "positional"
	MatchProximity  = "proximity"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Upload    UploadConfig
	Ingest    IngestConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// ProfilingConfig controls the optional pprof listener
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	FrontendURL string
	CORSOrigins []string
}

// UploadConfig bounds a single upload request
type UploadConfig struct {
	MaxFiles          int
	MaxContentLength  int64
	MaxConcurrentJobs int64
}

// IngestConfig holds spreadsheet layout and reconciliation settings
type IngestConfig struct {
	HeaderRow       int
	FallbackDataRow int
	ColumnMatching  string
	SkipTitleRow    bool
	BatchSize       int
	MinConducted    int
}

// Default origins allowed to call the API from a browser. A single "*" matches any
// run of characters, for preview deployments.
var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:4173",
	"https://attendance-trackers-tce.vercel.app",
	"https://attendance-report-react.vercel.app",
	"https://attendance-report-react-*.vercel.app",
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  loadDatabaseConfig(),
		Server:    loadServerConfig(),
		Upload:    loadUploadConfig(),
		Ingest:    loadIngestConfig(),
		Profiling: loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "sqlite://attendance.db"},
		Server: ServerConfig{
			Port:        "5000",
			GinMode:     "debug",
			FrontendURL: "http://127.0.0.1:5173",
			CORSOrigins: append([]string(nil), defaultCORSOrigins...),
		},
		Upload:    UploadConfig{MaxFiles: 20, MaxContentLength: 16 << 20, MaxConcurrentJobs: 1},
		Ingest:    DefaultIngestConfig(),
		Profiling: ProfilingConfig{Port: "6060"},
		LogLevel:  "INFO",
	}
}

// DefaultIngestConfig returns the layout constants observed in the roster exports.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		HeaderRow:       4,
		FallbackDataRow: 7,
		ColumnMatching:  MatchProximity,
		SkipTitleRow:    true,
		BatchSize:       500,
		MinConducted:    5,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", "sqlite://attendance.db"),
	}
}

func loadServerConfig() ServerConfig {
	frontend := getEnvOrDefault("FRONTEND_URL", "http://127.0.0.1:5173")
	origins := append([]string(nil), defaultCORSOrigins...)
	if strings.Contains(frontend, "vercel.app") {
		origins = append(origins, strings.TrimRight(frontend, "/"))
	}
	origins = append(origins, splitList(os.Getenv("CORS_ORIGINS"))...)

	return ServerConfig{
		Port:        getEnvOrDefault("PORT", "5000"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		FrontendURL: strings.TrimRight(frontend, "/"),
		CORSOrigins: origins,
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		MaxFiles:          getEnvIntOrDefault("MAX_UPLOAD_FILES", 20),
		MaxContentLength:  int64(getEnvIntOrDefault("MAX_CONTENT_LENGTH", 16<<20)),
		MaxConcurrentJobs: int64(getEnvIntOrDefault("MAX_CONCURRENT_UPLOADS", 1)),
	}
}

func loadIngestConfig() IngestConfig {
	def := DefaultIngestConfig()
	return IngestConfig{
		HeaderRow:       getEnvIntOrDefault("INGEST_HEADER_ROW", def.HeaderRow),
		FallbackDataRow: getEnvIntOrDefault("INGEST_FALLBACK_DATA_ROW", def.FallbackDataRow),
		ColumnMatching:  strings.ToLower(getEnvOrDefault("INGEST_COLUMN_MATCHING", def.ColumnMatching)),
		SkipTitleRow:    getEnvBoolOrDefault("INGEST_SKIP_TITLE_ROW", def.SkipTitleRow),
		BatchSize:       getEnvIntOrDefault("INGEST_BATCH_SIZE", def.BatchSize),
		MinConducted:    getEnvIntOrDefault("INGEST_MIN_CONDUCTED", def.MinConducted),
	}
}

func loadProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Ingest.ColumnMatching != MatchPositional && config.Ingest.ColumnMatching != MatchProximity {
		return errors.ConfigInvalid("INGEST_COLUMN_MATCHING must be positional or proximity")
	}
	if config.Ingest.BatchSize < 1 {
		return errors.ConfigInvalid("INGEST_BATCH_SIZE must be positive")
	}
	if config.Ingest.HeaderRow < 0 || config.Ingest.FallbackDataRow < 0 {
		return errors.ConfigInvalid("ingest row offsets must not be negative")
	}
	if config.Upload.MaxFiles < 1 {
		return errors.ConfigInvalid("MAX_UPLOAD_FILES must be positive")
	}
	if config.Upload.MaxConcurrentJobs < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_UPLOADS must be positive")
	}
	for _, origin := range config.Server.CORSOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return errors.ConfigInvalid("CORS origin must start with http:// or https://: " + origin)
		}
		if strings.Count(origin, "*") > 1 {
			return errors.ConfigInvalid("CORS origin may contain at most one '*': " + origin)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
