// Package hooks runs user commands around snapshot exports. Hooks live in
// hooks.yaml next to the config file and fire before the snapshot is
// written (pre-export) and after it exists on disk (post-export).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the hook configuration file inside the config directory.
const FileName = "hooks.yaml"

// Phase is when a hook runs.
type Phase string

const (
	// PreExport runs before the snapshot is written. Failure cancels it.
	PreExport Phase = "pre-export"
	// PostExport runs after the snapshot is written. Failure is reported
	// but the file stays.
	PostExport Phase = "post-export"
)

// OnError values.
const (
	Fail     = "fail"
	Continue = "continue"
)

// DefaultTimeout bounds a hook that sets no timeout of its own.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"` // values are $-expanded
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase groups hooks by phase.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// ExportContext describes the snapshot; hooks see it as environment
// variables.
type ExportContext struct {
	Path      string    // PANDEMAP_EXPORT_PATH
	Format    string    // PANDEMAP_EXPORT_FORMAT: svg, png or sqlite
	Date      string    // PANDEMAP_DATE
	Countries int       // PANDEMAP_COUNTRY_COUNT
	Source    string    // PANDEMAP_SOURCE: backend base URL
	Timestamp time.Time // PANDEMAP_TIMESTAMP (RFC3339)
}

// ToEnv converts the context to KEY=value pairs.
func (c ExportContext) ToEnv() []string {
	return []string{
		"PANDEMAP_EXPORT_PATH=" + c.Path,
		"PANDEMAP_EXPORT_FORMAT=" + c.Format,
		"PANDEMAP_DATE=" + c.Date,
		fmt.Sprintf("PANDEMAP_COUNTRY_COUNT=%d", c.Countries),
		"PANDEMAP_SOURCE=" + c.Source,
		"PANDEMAP_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Load reads dir/hooks.yaml and fills in defaults. A missing file yields
// an empty config. Problems that do not stop loading come back as
// warnings.
func Load(dir string) (*Config, []string, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var warnings []string
	cfg.Hooks.PreExport = normalize(cfg.Hooks.PreExport, PreExport, &warnings)
	cfg.Hooks.PostExport = normalize(cfg.Hooks.PostExport, PostExport, &warnings)
	return &cfg, warnings, nil
}

func normalize(hooks []Hook, phase Phase, warnings *[]string) []Hook {
	var out []Hook
	for i, hook := range hooks {
		n := i + 1
		if strings.TrimSpace(hook.Command) == "" {
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d has no command; skipped", phase, n))
			continue
		}
		if hook.Timeout <= 0 {
			hook.Timeout = DefaultTimeout
		}
		switch hook.OnError {
		case Fail, Continue:
		case "":
			hook.OnError = phase.defaultOnError()
		default:
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d: unknown on_error %q, using %q", phase, n, hook.OnError, Fail))
			hook.OnError = Fail
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", phase, n)
		}
		out = append(out, hook)
	}
	return out
}

func (p Phase) defaultOnError() string {
	if p == PreExport {
		return Fail
	}
	return Continue
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// Phase returns the hooks for p.
func (c *Config) Phase(p Phase) []Hook {
	if c == nil {
		return nil
	}
	switch p {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	// Mirrors Hook with Timeout as a string; keep the two in sync.
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}
	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = strings.ToLower(strings.TrimSpace(dto.OnError))

	if dto.Timeout == "" {
		return nil
	}
	d, err := time.ParseDuration(dto.Timeout)
	if err == nil {
		h.Timeout = d
		return nil
	}
	var seconds float64
	if _, scanErr := fmt.Sscanf(dto.Timeout, "%f", &seconds); scanErr != nil {
		return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
	}
	h.Timeout = time.Duration(seconds * float64(time.Second))
	return nil
}
