package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Output  OutputConfig
	History HistoryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	MaxUploadMB int64
}

// LLMConfig holds Gemini-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OutputConfig holds the per-kind JSON output directories
type OutputConfig struct {
	PDFDir   string
	ExcelDir string
}

// HistoryConfig holds the run-history store configuration.
// An empty DBPath disables history entirely.
type HistoryConfig struct {
	DBPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		// the original deployment used the Google SDK naming
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			MaxUploadMB: getEnvAsInt64("MAX_UPLOAD_MB", 50),
		},
		LLM: LLMConfig{
			APIKey:      apiKey,
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Output: OutputConfig{
			PDFDir:   getEnv("JSON_OUTPUT_PDF_DIR", "json_output_pdf"),
			ExcelDir: getEnv("JSON_OUTPUT_EXCEL_DIR", "json_output_excel"),
		},
		History: HistoryConfig{
			DBPath: getEnv("HISTORY_DB_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing model credential is
// fatal at startup, not a per-call error.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY (or GOOGLE_API_KEY) is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Output.PDFDir == "" || c.Output.ExcelDir == "" {
		return NewAppError("CONFIG_ERROR", "output directories must not be empty", ErrInvalidInput)
	}
	return nil
}
