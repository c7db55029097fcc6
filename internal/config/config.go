package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	PublicBaseURL string

	StoreBackend string
	DBPath       string
	DatabaseDSN  string

	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string

	ReportDir     string
	ReportBackend string
	ReportPath    string
	GCSBucket     string

	TemplatesFile    string
	Brand            string
	InspectorName    string
	InspectorLicense string

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is loaded first without overriding variables that
// are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		DBPath:       getEnv("DB_PATH", "/data/vistoria.db"),
		DatabaseDSN:  getEnv("DATABASE_DSN", ""),

		VisionBackend: getEnv("VISION_BACKEND", "ollama"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),

		ReportDir:     getEnv("REPORT_DIR", "/data/reports"),
		ReportBackend: getEnv("REPORT_BACKEND", "local"),
		ReportPath:    getEnv("REPORT_LOCAL_PATH", "/data/published"),
		GCSBucket:     getEnv("GCS_BUCKET", ""),

		TemplatesFile:    getEnv("TEMPLATES_FILE", ""),
		Brand:            getEnv("REPORT_BRAND", "Vistoria"),
		InspectorName:    getEnv("INSPECTOR_NAME", ""),
		InspectorLicense: getEnv("INSPECTOR_LICENSE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
