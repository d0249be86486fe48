package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

var (
	ErrMissingBancardKeys = errors.New("BANCARD_PUBLIC_KEY and BANCARD_PRIVATE_KEY are required")
	ErrMissingDBURL       = errors.New("DB_URL is required")
)

// Bancard holds the gateway credentials. Environment is "sandbox" (default) or
// "production".
type Bancard struct {
	Environment string
	PublicKey   string
	PrivateKey  string
}

// Config is the reference server's configuration.
type Config struct {
	AppEnv    string
	AppPort   string
	DBURL     string
	JWTSecret string
	Bancard   Bancard
}

func load() (*koanf.Koanf, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return k, nil
}

func bancardFrom(k *koanf.Koanf) (Bancard, error) {
	b := Bancard{
		Environment: valueOrDefault(k.String("BANCARD_ENVIRONMENT"), "sandbox"),
		PublicKey:   strings.TrimSpace(k.String("BANCARD_PUBLIC_KEY")),
		PrivateKey:  strings.TrimSpace(k.String("BANCARD_PRIVATE_KEY")),
	}
	if b.PublicKey == "" || b.PrivateKey == "" {
		return Bancard{}, ErrMissingBancardKeys
	}
	return b, nil
}

// LoadBancard reads only the gateway credentials.
func LoadBancard() (Bancard, error) {
	k, err := load()
	if err != nil {
		return Bancard{}, err
	}
	return bancardFrom(k)
}

// Load reads the full server configuration from the environment and an optional
// .env file.
func Load() (*Config, error) {
	k, err := load()
	if err != nil {
		return nil, err
	}

	b, err := bancardFrom(k)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:    valueOrDefault(k.String("APP_ENV"), "development"),
		AppPort:   valueOrDefault(k.String("APP_PORT"), "8080"),
		DBURL:     k.String("DB_URL"),
		JWTSecret: k.String("JWT_SECRET"),
		Bancard:   b,
	}
	if cfg.DBURL == "" {
		return nil, ErrMissingDBURL
	}
	return cfg, nil
}

func valueOrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
