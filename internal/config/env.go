package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. AIAUDIT_PLACES_API_KEY.
const EnvPrefix = "AIAUDIT"

// DefaultDotenvFile is loaded when present before the environment is read.
const DefaultDotenvFile = ".env"

// APIKeys are the enrichment credentials. Each source is disabled while
// its key is empty.
type APIKeys struct {
	// PlacesAPIKey enables review lookups.
	PlacesAPIKey string `envconfig:"PLACES_API_KEY"`

	// SearchAPIKey and SearchEngineID enable rankings and backlinks via
	// the custom search API.
	SearchAPIKey   string `envconfig:"SEARCH_API_KEY"`
	SearchEngineID string `envconfig:"SEARCH_ENGINE_ID"`

	// FirecrawlAPIKey enables backlinks via the crawl service.
	FirecrawlAPIKey string `envconfig:"FIRECRAWL_API_KEY"`
}

// SearchEnabled reports whether both custom search settings are set.
func (k APIKeys) SearchEnabled() bool {
	return k.SearchAPIKey != "" && k.SearchEngineID != ""
}

// Env is the environment overlay.
type Env struct {
	APIKeys

	DBDir       string `envconfig:"DB_DIR"`
	UserAgent   string `envconfig:"USER_AGENT"`
	MetricsFile string `envconfig:"METRICS_FILE"`
}

// LoadEnv loads the dotenv files that exist, without overriding variables
// already set, and then reads the AIAUDIT_ variables.
func LoadEnv(dotenvFiles ...string) (Env, error) {
	for _, path := range dotenvFiles {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return Env{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// ApplyEnv overlays the non-empty environment values.
func (c *Config) ApplyEnv(env Env) {
	c.APIKeys = env.APIKeys
	if env.DBDir != "" {
		c.DBDir = env.DBDir
	}
	if env.UserAgent != "" {
		c.UserAgent = env.UserAgent
	}
	if env.MetricsFile != "" {
		c.MetricsFile = env.MetricsFile
	}
}
