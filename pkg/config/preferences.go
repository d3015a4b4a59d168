package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences is the small piece of UI state that survives restarts.
type Preferences struct {
	DarkMode bool `yaml:"dark_mode"`
}

// PreferenceFile persists Preferences as YAML.
type PreferenceFile struct {
	path string
}

// NewPreferenceFile returns a store backed by path.
func NewPreferenceFile(path string) *PreferenceFile {
	return &PreferenceFile{path: path}
}

// DefaultPreferenceFile returns the store in the XDG state directory.
func DefaultPreferenceFile() *PreferenceFile {
	dir := StateDir()
	if dir == "" {
		dir = "."
	}
	return NewPreferenceFile(filepath.Join(dir, "preferences.yaml"))
}

// Path returns the backing file path.
func (p *PreferenceFile) Path() string { return p.path }

// Load reads the file. A missing file yields zero Preferences (dark mode off).
func (p *PreferenceFile) Load() (Preferences, error) {
	var prefs Preferences
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("parsing preferences: %w", err)
	}
	return prefs, nil
}

// Save writes prefs atomically (temp file + rename).
func (p *PreferenceFile) Save(prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}

// DarkMode returns the stored flag.
func (p *PreferenceFile) DarkMode() (bool, error) {
	prefs, err := p.Load()
	return prefs.DarkMode, err
}

// SetDarkMode stores the flag, keeping any other preferences intact.
func (p *PreferenceFile) SetDarkMode(on bool) error {
	prefs, err := p.Load()
	if err != nil {
		prefs = Preferences{}
	}
	prefs.DarkMode = on
	return p.Save(prefs)
}
