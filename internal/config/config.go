package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultJWTSecret = "dev-secret-change-me"

	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

type Config struct {
	Port                  string
	DatabaseDSN           string
	JWTSecret             string
	Env                   string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int

	MessageStore string
	BadgerPath   string
	CORSOrigin   string

	TranslationURL            string
	RapidAPIKey               string
	RapidAPIHost              string
	TranslationTimeoutSeconds int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt returns def when the value is missing, malformed or not positive.
func getenvInt(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Load reads the process environment, after merging a .env file from the
// working directory when one exists. Variables already set win.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:                      getenv("APP_PORT", "8080"),
		DatabaseDSN:               getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=chat port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:                 getenv("JWT_SECRET", DefaultJWTSecret),
		Env:                       getenv("APP_ENV", "dev"),
		AccessTokenTTLMinutes:     getenvInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:       getenvInt("REFRESH_TOKEN_TTL_DAYS", 7),
		MessageStore:              getenv("MESSAGE_STORE", StorePostgres),
		BadgerPath:                getenv("BADGER_PATH", "./data/messages"),
		CORSOrigin:                os.Getenv("CORS_ORIGIN"),
		TranslationURL:            os.Getenv("TRANSLATION_URL"),
		RapidAPIKey:               os.Getenv("X_RAPIDAPI_KEY"),
		RapidAPIHost:              os.Getenv("X_RAPIDAPI_HOST"),
		TranslationTimeoutSeconds: getenvInt("TRANSLATION_TIMEOUT_SECONDS", 0),
	}
}

func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if cfg.Env != "dev" && (cfg.JWTSecret == "" || cfg.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set outside dev")
	}
	switch cfg.MessageStore {
	case "", StorePostgres:
	case StoreBadger:
		if cfg.BadgerPath == "" {
			return errors.New("BADGER_PATH is required for the badger message store")
		}
	default:
		return errors.New("MESSAGE_STORE must be postgres or badger")
	}
	return nil
}
