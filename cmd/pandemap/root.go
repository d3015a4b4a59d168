package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/pandemap/pkg/api"
	"github.com/vanderheijden86/pandemap/pkg/config"
	"github.com/vanderheijden86/pandemap/pkg/dashboard"
	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/geo"
	"github.com/vanderheijden86/pandemap/pkg/state"
	"github.com/vanderheijden86/pandemap/pkg/ui"
	"github.com/vanderheijden86/pandemap/pkg/watcher"
)

// options holds the flags shared by every command and the config they
// resolve to.
type options struct {
	configPath string
	envFile    string
	apiBase    string
	geometry   string

	// set when the flag was given on the command line
	apiSet      bool
	geometrySet bool

	timings bool

	cfg config.Config
	// lookup reads the process environment; tests replace it.
	lookup func(string) (string, bool)
}

// NewRootCommand builds the pandemap command tree.
func NewRootCommand() *cobra.Command {
	o := &options{lookup: os.LookupEnv}

	cmd := &cobra.Command{
		Use:   "pandemap",
		Short: "COVID-19 choropleth dashboard for the terminal",
		Long: `pandemap shows COVID-19 cases per million by country on a world map,
with a date timeline and global figures, fed by the statistics backend.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(cmd); err != nil {
				return err
			}
			return runTUI(cmd.Context(), o)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			logTimings()
			if o.timings {
				printTimings(cmd.ErrOrStderr())
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file with PANDEMAP_* settings")
	flags.StringVar(&o.apiBase, "api", "", "backend base URL (overrides config and environment)")
	flags.StringVar(&o.geometry, "geometry", "", "GeoJSON world geometry, URL or path")
	flags.BoolVar(&o.timings, "timings", false, "print fetch and render timings to stderr on exit")

	cmd.AddCommand(
		newSnapshotCommand(o),
		newStatsCommand(o),
		newSetupCommand(o),
		newFixtureCommand(),
		newVersionCommand(),
	)
	return cmd
}

func (o *options) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ConfigPath()
}

// layer reads the config file at path and applies the .env file, the
// environment and the flags on top, in that order.
func (o *options) layer(path string) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFrom(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	dotenv, err := config.LoadDotEnv(o.envFile)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, dotenv, o.lookup); err != nil {
		return cfg, err
	}

	if o.apiSet {
		cfg.API.BaseURL = strings.TrimRight(o.apiBase, "/")
	}
	if o.geometrySet {
		cfg.Map.Geometry = o.geometry
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) load(cmd *cobra.Command) error {
	o.apiSet = cmd.Flags().Changed("api")
	o.geometrySet = cmd.Flags().Changed("geometry")
	cfg, err := o.layer(o.resolvedConfigPath())
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *options) client(n api.Notifier) *api.Client {
	return api.NewClient(o.cfg.API.BaseURL,
		api.WithTimeout(o.cfg.API.Timeout),
		api.WithRetries(o.cfg.API.Retries),
		api.WithBackoffStep(o.cfg.API.BackoffStep),
		api.WithNotifier(n),
	)
}

func (o *options) geometryLoader(c *api.Client) dashboard.GeometryLoader {
	src := o.cfg.Map.Geometry
	return func(ctx context.Context) (*geo.World, error) {
		return geo.Load(ctx, c, src)
	}
}

// stderrNotifier prints banner notices for the non-interactive commands.
func stderrNotifier(cmd *cobra.Command) api.Notifier {
	return api.NotifierFunc(func(n api.Notice) {
		cmd.PrintErrln("error: " + n.Message)
	})
}

func runTUI(ctx context.Context, o *options) error {
	if debug.Enabled() {
		dir := config.StateDir()
		if err := os.MkdirAll(dir, 0o755); err == nil {
			f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "pandemap")
			if err == nil {
				defer f.Close()
				debug.SetOutput(f)
			}
		}
	}

	notices := ui.NewNoticeChannel()
	client := o.client(notices)
	store := state.New(config.DefaultPreferenceFile())
	dash := dashboard.New(client, store, o.geometryLoader(client),
		dashboard.WithTransition(o.cfg.Map.Transition))

	uiOpts := []ui.Option{ui.WithNotices(notices)}
	if path := o.resolvedConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			r, err := watcher.WatchConfig(path, o.layer)
			if err != nil {
				debug.Log("config watch disabled: %v", err)
			} else {
				defer r.Stop()
				uiOpts = append(uiOpts, ui.WithConfigReloader(r))
			}
		}
	}

	opts := append(ui.ProgramOptions(o.cfg), tea.WithContext(ctx))
	p := tea.NewProgram(ui.NewModel(dash, o.cfg, uiOpts...), opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
