package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env         string
	Addr        string
	DBDSN       string
	DBMigrate   bool
	DBMaxConns  int
	TokenSecret string
	LogLevel    string

	TrustSweep        string
	TrustRelayTimeout time.Duration
	TrustMaxAttempts  int

	FriendRequestsPerMinute int

	AdminBootstrapUsername string
}

// Load reads APP_ENV_FILE (default .env, when present) into the process
// environment without overriding variables that are already set, then parses
// the environment.
func Load() (Config, error) {
	path := os.Getenv("APP_ENV_FILE")
	required := path != ""
	if path == "" {
		path = ".env"
	}
	if err := loadDotEnvFile(path, os.Setenv, os.Getenv); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	return LoadFromEnv(os.Getenv)
}

func loadDotEnvFile(path string, setenv func(string, string) error, getenv func(string) string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, v := range vals {
		if v == "" || getenv(k) != "" {
			continue
		}
		if err := setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:         getenv("APP_ENV"),
		Addr:        getenv("APP_ADDR"),
		DBDSN:       getenv("APP_DB_DSN"),
		LogLevel:    getenv("APP_LOG_LEVEL"),
		TokenSecret: getenv("APP_TOKEN_SECRET"),
		TrustSweep:  strings.TrimSpace(getenv("APP_TRUST_SWEEP")),

		AdminBootstrapUsername: strings.TrimSpace(getenv("APP_ADMIN_BOOTSTRAP_USERNAME")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.TrustSweep == "" {
		cfg.TrustSweep = "@every 30s"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if raw := getenv("APP_DB_MIGRATE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_DB_MIGRATE: %w", err)
		}
		cfg.DBMigrate = v
	}

	if _, err := cron.ParseStandard(cfg.TrustSweep); err != nil {
		return Config{}, fmt.Errorf("APP_TRUST_SWEEP: %w", err)
	}

	timeoutRaw := getenv("APP_TRUST_RELAY_TIMEOUT")
	if timeoutRaw == "" {
		cfg.TrustRelayTimeout = 5 * time.Second
	} else {
		d, err := time.ParseDuration(timeoutRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TRUST_RELAY_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Config{}, errors.New("APP_TRUST_RELAY_TIMEOUT: must be > 0")
		}
		cfg.TrustRelayTimeout = d
	}

	var err error
	if cfg.TrustMaxAttempts, err = positiveInt(getenv, "APP_TRUST_MAX_ATTEMPTS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = positiveInt(getenv, "APP_DB_MAX_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.FriendRequestsPerMinute, err = positiveInt(getenv, "APP_FRIEND_REQUESTS_PER_MINUTE", 10); err != nil {
		return Config{}, err
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.TokenSecret) < 32 {
			return Config{}, errors.New("APP_TOKEN_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return n, nil
}
