package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog backends understood by CatalogConfig.Source.
const (
	CatalogStatic  = "static"
	CatalogSheets  = "sheets"
	CatalogMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Scanner  ScannerConfig
	Catalog  CatalogConfig
	Sheets   SheetsConfig
	MongoDB  MongoDBConfig
	WhatsApp WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// ScannerConfig tunes the scan session controller and its history log.
type ScannerConfig struct {
	SessionTimeout  time.Duration
	HistoryCapacity int
}

// CatalogConfig selects where item references are looked up.
type CatalogConfig struct {
	Source          string
	RefreshSchedule string
}

// SheetsConfig contains configuration required to read the catalog from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	CatalogRange    string
}

// MongoDBConfig holds settings for the MongoDB catalog.
type MongoDBConfig struct {
	URI               string
	DBName            string
	CatalogCollection string
}

// WhatsAppConfig contains credentials for the optional WhatsApp notification channel.
// Notifications are disabled when NotifyTo is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	NotifyTo      string
}

// Enabled reports whether stock notifications should be forwarded to WhatsApp.
func (c WhatsAppConfig) Enabled() bool {
	return c.NotifyTo != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("SCAN_SESSION_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parse SCAN_SESSION_TIMEOUT: %w", err)
	}

	capacity, err := strconv.Atoi(getenvWithDefault("HISTORY_CAPACITY", "0"))
	if err != nil {
		return nil, fmt.Errorf("parse HISTORY_CAPACITY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Scanner: ScannerConfig{
			SessionTimeout:  timeout,
			HistoryCapacity: capacity,
		},
		Catalog: CatalogConfig{
			Source:          strings.ToLower(getenvWithDefault("CATALOG_SOURCE", CatalogStatic)),
			RefreshSchedule: getenvWithDefault("CATALOG_REFRESH_SCHEDULE", "*/15 * * * *"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			CatalogRange:    getenvWithDefault("CATALOG_SHEET_RANGE", "Catalog!A:C"),
		},
		MongoDB: MongoDBConfig{
			URI:               os.Getenv("MONGODB_URI"),
			DBName:            getenvWithDefault("MONGODB_DB_NAME", "stockscan"),
			CatalogCollection: getenvWithDefault("MONGODB_CATALOG_COLLECTION", "catalog_items"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			NotifyTo:      os.Getenv("WHATSAPP_NOTIFY_TO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Scanner.SessionTimeout <= 0 {
		return errors.New("SCAN_SESSION_TIMEOUT must be positive")
	}

	if c.Scanner.HistoryCapacity < 0 {
		return errors.New("HISTORY_CAPACITY must not be negative")
	}

	switch c.Catalog.Source {
	case CatalogStatic:
	case CatalogSheets:
		switch {
		case c.Sheets.CredentialsPath == "":
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		case c.Sheets.SpreadsheetID == "":
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		case c.Sheets.CatalogRange == "":
			return errors.New("CATALOG_SHEET_RANGE must not be empty")
		}
	case CatalogMongoDB:
		switch {
		case c.MongoDB.URI == "":
			return errors.New("MONGODB_URI must be provided")
		case c.MongoDB.DBName == "":
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q", c.Catalog.Source)
	}

	if c.Catalog.Source != CatalogMongoDB && c.Catalog.RefreshSchedule == "" {
		return errors.New("CATALOG_REFRESH_SCHEDULE must be provided")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided when WHATSAPP_NOTIFY_TO is set")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_NOTIFY_TO is set")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
