package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFile  = "file"
	StoreDriverMySQL = "mysql"
)

// Config aggregates runtime configuration for the storefront and supporting services.
type Config struct {
	ListenAddr      string
	StoreDriver     string
	StoreFile       string
	MySQLDSN        string
	Currency        string
	AdminUsername   string
	AdminAliases    []string
	AdminPassword   string
	SessionTTL      time.Duration
	TopUpAmounts    []int64
	RequestTimeout  time.Duration
	SupportAPIKey   string
	SupportBaseURL  string
	SupportModel    string
	TelegramToken   string
	TelegramAdminID int64
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
	LogLevel        string
	LogFile         string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	const defaultSupportBaseURL = "https://generativelanguage.googleapis.com"

	cfg := Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFile)),
		StoreFile:       getEnv("STORE_FILE", filepath.Join("data", "store.json")),
		Currency:        getEnv("CURRENCY", "IDR"),
		AdminUsername:   strings.ToLower(strings.TrimSpace(getEnv("ADMIN_USERNAME", "presetbinn.id"))),
		AdminAliases:    getList("ADMIN_ALIASES", []string{"presetbinn.id@gmail.com"}),
		SessionTTL:      time.Hour * time.Duration(getInt("SESSION_TTL_HOURS", 24)),
		TopUpAmounts:    getAmounts("TOPUP_AMOUNTS", []int64{10000, 20000, 50000, 100000}),
		RequestTimeout:  time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 30)),
		SupportBaseURL:  normalizeBaseURL(getEnv("SUPPORT_BASE_URL", defaultSupportBaseURL), defaultSupportBaseURL),
		SupportModel:    getEnv("SUPPORT_MODEL", "gemini-3-flash-preview"),
		TelegramAdminID: getInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:        getEnv("S3_PREFIX", "ledger-exports"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:         os.Getenv("LOG_FILE"),
	}

	cfg.AdminPassword = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.SupportAPIKey = os.Getenv("SUPPORT_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	var missing []string
	switch cfg.StoreDriver {
	case StoreDriverMySQL:
		if cfg.MySQLDSN == "" {
			missing = append(missing, "MYSQL_DSN")
		}
	case StoreDriverFile:
		if cfg.StoreFile == "" {
			missing = append(missing, "STORE_FILE")
		}
	default:
		return Config{}, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
	if cfg.AdminUsername == "" {
		missing = append(missing, "ADMIN_USERNAME")
	}
	if cfg.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if cfg.TelegramToken != "" && cfg.TelegramAdminID == 0 {
		missing = append(missing, "TELEGRAM_ADMIN_CHAT_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// ExportEnabled reports whether every S3 setting needed for ledger exports is present.
// S3_PUBLIC_BASE_URL is optional; without it exports are returned as presigned links.
func (c Config) ExportEnabled() bool {
	return c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

func normalizeBaseURL(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		parsed.Host = parsed.Path
		parsed.Path = ""
	}

	return strings.TrimRight(parsed.String(), "/")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getAmounts parses a comma separated list of positive amounts. Any malformed entry
// discards the whole list in favour of the fallback.
func getAmounts(key string, fallback []int64) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n <= 0 {
			return fallback
		}
		out = append(out, n)
	}
	return out
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Running purely from the process environment is allowed.
	return nil
}
