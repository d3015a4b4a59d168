package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/pandemap/pkg/config"
)

// errNotTerminal is returned when setup cannot prompt.
var errNotTerminal = errors.New("setup needs an interactive terminal; edit the config file instead")

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newSetupCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write the config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal() {
				return errNotTerminal
			}
			path := o.resolvedConfigPath()
			if path == "" {
				return errors.New("cannot determine config directory; pass --config")
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				// Start over from the defaults rather than refusing to fix a broken file.
				cmd.PrintErrf("ignoring unreadable %s: %v\n", path, err)
				cfg = config.DefaultConfig()
			}
			if err := runSetupForm(&cfg); err != nil {
				return err
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			cmd.Printf("Saved %s\n", path)
			return nil
		},
	}
}

// setupAnswers are the form fields as text.
type setupAnswers struct {
	baseURL  string
	geometry string
	timeout  string
	retries  string
	mouse    bool
}

func answersFrom(cfg config.Config) setupAnswers {
	return setupAnswers{
		baseURL:  cfg.API.BaseURL,
		geometry: cfg.Map.Geometry,
		timeout:  cfg.API.Timeout.String(),
		retries:  strconv.Itoa(cfg.API.Retries),
		mouse:    cfg.UI.Mouse,
	}
}

// apply copies validated answers into cfg.
func (a setupAnswers) apply(cfg *config.Config) error {
	next := *cfg
	next.API.BaseURL = strings.TrimRight(strings.TrimSpace(a.baseURL), "/")
	next.Map.Geometry = strings.TrimSpace(a.geometry)
	d, err := time.ParseDuration(strings.TrimSpace(a.timeout))
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	next.API.Timeout = d
	n, err := strconv.Atoi(strings.TrimSpace(a.retries))
	if err != nil {
		return fmt.Errorf("retries: %w", err)
	}
	next.API.Retries = n
	next.UI.Mouse = a.mouse
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

func validateURL(s string) error {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = strings.TrimSpace(s)
	return cfg.Validate()
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateRetries(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func runSetupForm(cfg *config.Config) error {
	a := answersFrom(*cfg)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Base URL of the statistics API").
				Value(&a.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("World geometry").
				Description("GeoJSON URL or local path").
				Value(&a.geometry),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Request timeout").
				Description("Per attempt, e.g. 10s").
				Value(&a.timeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Retries").
				Description("Extra attempts after a network failure or timeout").
				Value(&a.retries).
				Validate(validateRetries),
			huh.NewConfirm().
				Title("Enable mouse?").
				Description("Click countries, wheel to zoom, drag to pan").
				Value(&a.mouse),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return err
	}
	return a.apply(cfg)
}
