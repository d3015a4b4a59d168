// Package config handles loading and saving pandemap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/pandemap/config.yaml
//   - State:  ~/.local/state/pandemap/preferences.yaml (dark mode flag)
//
// Values are layered: defaults, then config.yaml, then a .env file and the
// process environment, then command-line flags (applied by the caller).
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
	"gopkg.in/yaml.v3"
)

const appName = "pandemap"

// Environment variables recognised by ApplyEnv.
const (
	EnvAPIBase  = "PANDEMAP_API_BASE"
	EnvGeometry = "PANDEMAP_GEOMETRY"
	EnvTimeout  = "PANDEMAP_TIMEOUT"
	EnvRetries  = "PANDEMAP_RETRIES"
)

// DefaultGeometryURL is a public GeoJSON world boundary file whose features
// carry ISO alpha-3 ids and a "name" property.
const DefaultGeometryURL = "https://raw.githubusercontent.com/holtzy/D3-graph-gallery/master/DATA/world.geojson"

// APIConfig controls the backend client.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`      // per attempt
	Retries     int           `yaml:"retries"`                // additional attempts after the first
	BackoffStep time.Duration `yaml:"backoff_step,omitempty"` // wait = step x attempt number
}

// MapConfig controls geometry loading and map animation.
type MapConfig struct {
	Geometry   string        `yaml:"geometry,omitempty"` // URL or local GeoJSON path
	Transition time.Duration `yaml:"transition,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	BannerTTL time.Duration `yaml:"banner_ttl,omitempty"`
	Mouse     bool          `yaml:"mouse"`
}

// Config is the top-level configuration for pandemap.
type Config struct {
	API APIConfig `yaml:"api"`
	Map MapConfig `yaml:"map"`
	UI  UIConfig  `yaml:"ui"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:     "http://localhost:3000",
			Timeout:     10 * time.Second,
			Retries:     2,
			BackoffStep: time.Second,
		},
		Map: MapConfig{
			Geometry:   DefaultGeometryURL,
			Transition: 500 * time.Millisecond,
		},
		UI: UIConfig{
			BannerTTL: 10 * time.Second,
			Mouse:     true,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.Retries < 0 {
		return errors.New("api.retries must not be negative")
	}
	if c.API.BackoffStep < 0 {
		return errors.New("api.backoff_step must not be negative")
	}
	if strings.TrimSpace(c.Map.Geometry) == "" {
		return errors.New("map.geometry is required")
	}
	return nil
}

// ConfigDir returns the XDG config directory for pandemap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for pandemap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Map.Geometry = expandHome(cfg.Map.Geometry)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadDotEnv reads KEY=VALUE pairs from path. A missing file yields an
// empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vals, nil
}

// ApplyEnv overlays environment settings onto cfg. dotenv supplies values
// from a .env file; the real environment (lookup) wins over it.
func ApplyEnv(cfg *Config, dotenv map[string]string, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		v, ok := dotenv[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIBase); ok {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get(EnvGeometry); ok {
		cfg.Map.Geometry = expandHome(v)
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.API.Timeout = d
	}
	if v, ok := get(EnvRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRetries, err)
		}
		cfg.API.Retries = n
	}
	return nil
}

// IsRemote reports whether the geometry source is a URL rather than a path.
func (m MapConfig) IsRemote() bool {
	return strings.HasPrefix(m.Geometry, "http://") || strings.HasPrefix(m.Geometry, "https://")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
