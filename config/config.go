package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSupermarket is the supermarket name used before setup and after a reset.
const DefaultSupermarket = "Mercado Padrão"

// Store backends accepted in STORE_BACKEND.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreBackend string
	BadgerDir    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	DefaultSupermarket string
	CurrencySymbol     string

	PersistQueueSize int
	MaxRetries       int

	ReceiptCSVPath string

	ChartOutputDir      string
	ChartPollIntervalMs int
	ChartMaxAttempts    int
	ChromeBin           string

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", BackendBadger),
		BadgerDir:    getEnv("BADGER_DIR", "./data/badger"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "grocer"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "grocer123"),
		PostgresDB:       getEnv("POSTGRES_DB", "smart_grocer"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DefaultSupermarket: getEnv("DEFAULT_SUPERMARKET", DefaultSupermarket),
		CurrencySymbol:     getEnv("CURRENCY_SYMBOL", "R$"),

		PersistQueueSize: getEnvInt("PERSIST_QUEUE_SIZE", 64),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		ReceiptCSVPath: getEnv("RECEIPT_CSV_PATH", "./output/receipts.csv"),

		ChartOutputDir:      getEnv("CHART_OUTPUT_DIR", "./output/charts"),
		ChartPollIntervalMs: getEnvInt("CHART_POLL_INTERVAL_MS", 100),
		ChartMaxAttempts:    getEnvInt("CHART_MAX_ATTEMPTS", 100),
		ChromeBin:           getEnv("CHROME_BIN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ChartPollInterval is the delay between chart capability probes.
func (c *Config) ChartPollInterval() time.Duration {
	return time.Duration(c.ChartPollIntervalMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
