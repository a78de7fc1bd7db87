package config

import (
	"os"
	"strconv"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
	BackendWorkbook = "workbook"
)

// Config referral-backend (HTTP API) configuration, loaded from environment
// variables with dev-friendly defaults.
type Config struct {
	HTTP struct {
		Addr string
	}

	// StoreBackend selects the record store: memory | postgres | sheets | workbook
	StoreBackend string

	Database DatabaseConfig

	Sheets struct {
		BaseURL       string
		SpreadsheetID string
		Worksheet     string
		Token         string
	}

	Workbook struct {
		Path string
	}

	Cache struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to the in-memory store so a plain `go run` serves the full
	// workflow without any external collaborator.
	cfg.StoreBackend = getEnv("STORE_BACKEND", BackendMemory)

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "referrals")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Sheets.BaseURL = getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com")
	cfg.Sheets.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", "")
	cfg.Sheets.Worksheet = getEnv("SHEETS_WORKSHEET", "Sheet1")
	cfg.Sheets.Token = getEnv("SHEETS_TOKEN", "")

	cfg.Workbook.Path = getEnv("WORKBOOK_PATH", "referrals.xlsx")

	cfg.Cache.Enabled = getEnv("CACHE_ENABLED", "false") == "true"
	cfg.Cache.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Cache.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Cache.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
