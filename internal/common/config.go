package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Bot     BotConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Ledger  LedgerConfig
	History HistoryConfig
}

// BotConfig holds messaging-gateway configuration
type BotConfig struct {
	Token          string
	AllowedUserIDs []int64
	DownloadDir    string
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	TessdataDir   string
}

// LLMConfig holds field-inference configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LedgerConfig holds the ledger-service connection and transaction defaults
type LedgerConfig struct {
	BaseURL  string
	Password string
	FileID   string
	Account  string
	Payee    string
	Timeout  time.Duration
}

// HistoryConfig holds the local transaction-history settings.
// An empty Path disables history and export.
type HistoryConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Token:          getEnv("BOT_TOKEN", ""),
			AllowedUserIDs: ParseUserIDs(getEnv("ALLOWED_USER_IDS", "")),
			DownloadDir:    getEnv("DOWNLOAD_DIR", "./downloaded_images"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434"),
			Model:       getEnv("LLM_MODEL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Ledger: LedgerConfig{
			BaseURL:  getEnv("LEDGER_URL", ""),
			Password: getEnv("LEDGER_PASSWORD", ""),
			FileID:   getEnv("LEDGER_FILE", ""),
			Account:  getEnv("LEDGER_ACCOUNT", ""),
			Payee:    getEnv("LEDGER_PAYEE", ""),
			Timeout:  getEnvAsDuration("LEDGER_TIMEOUT", 30*time.Second),
		},
		History: HistoryConfig{
			Path: getEnv("HISTORY_DB", "./receipts.db"),
		},
	}
}

// ParseUserIDs parses a comma-separated list of numeric submitter IDs.
// Blank entries and non-numeric noise are skipped.
func ParseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return NewAppError("CONFIG_ERROR", "BOT_TOKEN is required", ErrInvalidInput)
	}
	if len(c.Bot.AllowedUserIDs) == 0 {
		return NewAppError("CONFIG_ERROR", "ALLOWED_USER_IDS is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "LLM_MODEL is required", ErrInvalidInput)
	}
	if c.Ledger.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "LEDGER_URL is required", ErrInvalidInput)
	}
	if c.Ledger.Password == "" {
		return NewAppError("CONFIG_ERROR", "LEDGER_PASSWORD is required", ErrInvalidInput)
	}
	if c.Ledger.Account == "" {
		return NewAppError("CONFIG_ERROR", "LEDGER_ACCOUNT is required", ErrInvalidInput)
	}
	if c.Ledger.Payee == "" {
		return NewAppError("CONFIG_ERROR", "LEDGER_PAYEE is required", ErrInvalidInput)
	}
	return nil
}
