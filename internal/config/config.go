package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server and client settings. Values come from defaults, then an
// optional YAML file, then the environment (a .env file is loaded first when present).
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	BaseURL   string `yaml:"base_url"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	Backup BackupConfig `yaml:"backup"`
	Client ClientConfig `yaml:"client"`
}

type BackupConfig struct {
	Bucket        string        `yaml:"bucket"`
	Endpoint      string        `yaml:"endpoint"`
	Region        string        `yaml:"region"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Passphrase    string        `yaml:"passphrase"`
	Interval      time.Duration `yaml:"interval"`
	RetentionDays int           `yaml:"retention_days"`
}

// Enabled reports whether enough is configured to upload backups.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.Passphrase != ""
}

type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token"`
	KeyPath   string `yaml:"key_path"`
	StatePath string `yaml:"state_path"`
	Cipher    string `yaml:"cipher"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	dir := dataDir()
	return &Config{
		Port:           "8080",
		DBPath:         "jotter.db",
		BaseURL:        "http://localhost:8080",
		LogLevel:       "info",
		LogFormat:      "text",
		JWTIssuer:      "jotter",
		TokenTTL:       24 * time.Hour,
		RateLimitRPS:   5,
		RateLimitBurst: 20,
		Backup: BackupConfig{
			Region:        "auto",
			RetentionDays: 30,
		},
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
			KeyPath:   filepath.Join(dir, "key"),
			StatePath: filepath.Join(dir, "state.yaml"),
			Cipher:    "aead",
		},
	}
}

// Load builds a Config. path may be empty, in which case JOTTER_CONFIG is consulted;
// a missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Defaults()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("JOTTER_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = filepath.Join(dataDir(), "config.yaml")
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("JOTTER_DB_PATH", c.DBPath)
	c.BaseURL = getEnv("JOTTER_BASE_URL", c.BaseURL)
	c.LogLevel = getEnv("JOTTER_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("JOTTER_LOG_FORMAT", c.LogFormat)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JOTTER_JWT_ISSUER", c.JWTIssuer)
	c.TokenTTL = getEnvAsDuration("JOTTER_TOKEN_TTL", c.TokenTTL)

	c.RateLimitRPS = getEnvAsFloat("JOTTER_RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvAsInt("JOTTER_RATE_LIMIT_BURST", c.RateLimitBurst)

	c.Backup.Bucket = getEnv("JOTTER_BACKUP_BUCKET", c.Backup.Bucket)
	c.Backup.Endpoint = getEnv("JOTTER_BACKUP_ENDPOINT", c.Backup.Endpoint)
	c.Backup.Region = getEnv("JOTTER_BACKUP_REGION", c.Backup.Region)
	c.Backup.AccessKey = getEnv("JOTTER_BACKUP_ACCESS_KEY", c.Backup.AccessKey)
	c.Backup.SecretKey = getEnv("JOTTER_BACKUP_SECRET_KEY", c.Backup.SecretKey)
	c.Backup.Passphrase = getEnv("JOTTER_BACKUP_PASSPHRASE", c.Backup.Passphrase)
	c.Backup.Interval = getEnvAsDuration("JOTTER_BACKUP_INTERVAL", c.Backup.Interval)
	c.Backup.RetentionDays = getEnvAsInt("JOTTER_BACKUP_RETENTION_DAYS", c.Backup.RetentionDays)

	c.Client.ServerURL = getEnv("JOTTER_SERVER", c.Client.ServerURL)
	c.Client.Token = getEnv("JOTTER_TOKEN", c.Client.Token)
	c.Client.KeyPath = getEnv("JOTTER_KEY_PATH", c.Client.KeyPath)
	c.Client.StatePath = getEnv("JOTTER_STATE_PATH", c.Client.StatePath)
	c.Client.Cipher = getEnv("JOTTER_CIPHER", c.Client.Cipher)
}

// ValidateServer checks the settings `serve` cannot run without.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.Backup.Interval > 0 && !c.Backup.Enabled() {
		return fmt.Errorf("backup interval set but bucket or passphrase missing")
	}
	return nil
}

func dataDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "jotter")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jotter"
	}
	return filepath.Join(home, ".config", "jotter")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
