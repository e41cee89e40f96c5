package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	HTTPPort          string
	BaseURL           string
	DBDriver          string
	DBDSN             string
	DBDebug           bool
	JWTSecret         string
	CORSOrigins       []string
	AllowRegistration bool
	UploadDir         string
	RedisAddr         string
	GeminiAPIKey      string
	InvoicePrefix     string
	InvoiceDigits     int
	RestockOnCancel   bool
	StoreName         string
	LowStockThreshold int
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:         os.Getenv("DB_DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		InvoicePrefix: getEnv("INVOICE_PREFIX", "FAC"),
		StoreName:     getEnv("STORE_NAME", "Pet Supply Store"),
	}

	var err error
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.AllowRegistration, err = getBool("ALLOW_REGISTRATION", false); err != nil {
		return nil, err
	}
	if cfg.RestockOnCancel, err = getBool("RESTOCK_ON_CANCEL", true); err != nil {
		return nil, err
	}
	if cfg.InvoiceDigits, err = getInt("INVOICE_DIGITS", 4); err != nil {
		return nil, err
	}
	if cfg.LowStockThreshold, err = getInt("LOW_STOCK_THRESHOLD", 5); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported (mysql, postgres, sqlite)", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set, please configure your database")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.InvoiceDigits < 1 || cfg.InvoiceDigits > 12 {
		return nil, fmt.Errorf("INVOICE_DIGITS must be between 1 and 12, got %d", cfg.InvoiceDigits)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
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
