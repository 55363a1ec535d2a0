// Package config provides environment settings and the scraper sources file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Source type identifiers accepted in the sources file.
const (
	TypeBigHaat      = "bighaat"
	TypeAgroStar     = "agrostar"
	TypeKrishiJagran = "krishijagran"
	TypeSample       = "sample"
)

// Sources file validation errors.
var (
	ErrNoSources        = errors.New("at least one source is required")
	ErrNoEnabledSources = errors.New("at least one source must be enabled")
	ErrMissingType      = errors.New("source type is required")
	ErrUnknownType      = errors.New("unknown source type")
	ErrMissingBaseURL   = errors.New("base_url is required for scraping sources")
)

// Settings holds environment-driven runtime settings.
type Settings struct {
	DBPath           string
	ExportDir        string
	FrontendDataPath string
	SyncIntervalMin  int
	KeepExports      int
	Port             string
}

// LoadEnv loads .env.local when APP_ENV is "local", then reads settings from
// the environment with defaults for anything unset.
func LoadEnv() Settings {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			log.WithError(err).Warn("No .env.local loaded, relying on system environment")
		}
	}

	return Settings{
		DBPath:           getenv("AGRISYNC_DB_PATH", "./agrisync.db"),
		ExportDir:        getenv("AGRISYNC_EXPORT_DIR", "./exports"),
		FrontendDataPath: getenv("AGRISYNC_FRONTEND_DATA", "./frontend/src/data/products.json"),
		SyncIntervalMin:  getenvInt("AGRISYNC_SYNC_INTERVAL_MIN", 5),
		KeepExports:      getenvInt("AGRISYNC_KEEP_EXPORTS", 5),
		Port:             getenv("AGRISYNC_PORT", "9090"),
	}
}

// SourceConfig describes one scraping source.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	BaseURL    string   `yaml:"base_url"`
	Categories []string `yaml:"categories"`
	MaxPages   int      `yaml:"max_pages"`
	TimeoutSec int      `yaml:"timeout_sec"`
	Enabled    bool     `yaml:"enabled"`
}

// Sources is the parsed sources file.
type Sources struct {
	Sources        []SourceConfig `yaml:"sources"`
	SampleFallback bool           `yaml:"sample_fallback"`
	SampleCount    int            `yaml:"sample_count"`
}

// Enabled returns the enabled sources in file order.
func (s *Sources) Enabled() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(s.Sources))
	for _, src := range s.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// LoadSources reads, defaults and validates the YAML sources file.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var cfg Sources
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Sources) applyDefaults() {
	if s.SampleCount == 0 {
		s.SampleCount = 100
	}
	for i := range s.Sources {
		if s.Sources[i].MaxPages == 0 {
			s.Sources[i].MaxPages = 2
		}
		if s.Sources[i].TimeoutSec == 0 {
			s.Sources[i].TimeoutSec = 45
		}
		if s.Sources[i].Name == "" {
			s.Sources[i].Name = s.Sources[i].Type
		}
	}
}

func (s *Sources) validate() error {
	if len(s.Sources) == 0 {
		return ErrNoSources
	}
	enabled := 0
	for i, src := range s.Sources {
		if src.Type == "" {
			return fmt.Errorf("source %d: %w", i, ErrMissingType)
		}
		switch src.Type {
		case TypeBigHaat, TypeAgroStar, TypeKrishiJagran:
			if src.BaseURL == "" {
				return fmt.Errorf("source %q: %w", src.Name, ErrMissingBaseURL)
			}
		case TypeSample:
		default:
			return fmt.Errorf("source %q: %w: %s", src.Name, ErrUnknownType, src.Type)
		}
		if src.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return ErrNoEnabledSources
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
