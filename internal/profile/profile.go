package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Telegram configuration
	TelegramToken string // Bot API token; the Telegram adapter is disabled when empty

	// External fallback configuration
	WikipediaBaseURL string // Base URL of the Wikipedia REST API instance
	FallbackTimeout  int    // Fallback lookup timeout in seconds (default: 5)

	// Other configurations
	Mode    string // "prod", "dev" or "demo"
	Addr    string // HTTP listen address
	Port    int    // HTTP listen port
	Data    string // data directory for document stores and the conversation log
	Driver  string // database driver for the feedback mirror: sqlite, postgres or none
	DSN     string // database source name
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsTelegramEnabled returns true if a bot token is configured.
func (p *Profile) IsTelegramEnabled() bool {
	return p.TelegramToken != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.TelegramToken = getEnvOrDefault("SABIA_TELEGRAM_TOKEN", getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""))
	p.WikipediaBaseURL = getEnvOrDefault("SABIA_WIKIPEDIA_BASE_URL", "https://pt.wikipedia.org")
	p.FallbackTimeout = getEnvOrDefaultInt("SABIA_FALLBACK_TIMEOUT_SECONDS", 5)

	if p.FallbackTimeout <= 0 {
		slog.Warn("invalid fallback timeout, using default", "timeout", p.FallbackTimeout)
		p.FallbackTimeout = 5
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
		}
		if err := os.MkdirAll(dataDir, 0o770); err != nil {
			return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
		}
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			p.Data = "/var/opt/sabia"
		} else {
			p.Data = "dados_ia"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "", "sqlite":
		p.Driver = "sqlite"
		if p.DSN == "" {
			dbFile := fmt.Sprintf("sabia_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn required for postgres driver")
		}
	case "none":
		// Feedback events and statistics are kept in documents only.
	default:
		return errors.Errorf("unknown driver %q", p.Driver)
	}

	return nil
}
