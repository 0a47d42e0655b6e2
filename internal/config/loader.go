package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "SCOREBOARD_"
	EnvConfigFile = "SCOREBOARD_CONFIG"
	EnvDotEnvFile = "SCOREBOARD_DOTENV"
	defaultDotEnv = ".env"
)

// wellKnownEnv maps unprefixed variables used by common hosting platforms to koanf keys.
var wellKnownEnv = map[string]string{
	"DATABASE_URL": "database_url",
	"LIFF_ID":      "liff_id",
	"PORT":         "port",
}

// Load builds a Config by layering sources.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (only fills variables not already set in the environment)
//  3. YAML file if SCOREBOARD_CONFIG is set
//  4. DATABASE_URL, LIFF_ID, PORT
//  5. SCOREBOARD_* variables
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	wellKnown := env.Provider("", ".", func(s string) string {
		return wellKnownEnv[s]
	})
	if err := k.Load(wellKnown, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// SCOREBOARD_QUERY_TIMEOUT_MS -> query_timeout_ms; underscores stay to match the koanf tags.
	prefixed := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvConfigFile || s == EnvDotEnvFile {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv reads SCOREBOARD_DOTENV or ./.env; a missing default file is not an error.
func loadDotEnv() error {
	path := os.Getenv(EnvDotEnvFile)
	explicit := path != ""
	if !explicit {
		path = defaultDotEnv
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// splitOrigins accepts both YAML lists and a comma separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
