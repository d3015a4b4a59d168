package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/pandemap/pkg/dashboard"
	"github.com/vanderheijden86/pandemap/pkg/export"
	"github.com/vanderheijden86/pandemap/pkg/hooks"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/state"
	"github.com/vanderheijden86/pandemap/pkg/timeline"
)

type snapshotFlags struct {
	output string
	date   string
	dark   bool
	width  int
	height int
	title  string
	noHook bool
}

func newSnapshotCommand(o *options) *cobra.Command {
	var f snapshotFlags
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the map for a date to SVG, PNG or SQLite",
		Long: `snapshot renders the choropleth for one date without the interactive
dashboard. The format follows the output extension: .svg and .png write
the map with its legend, .db writes the dataset and global figures.

Commands listed in hooks.yaml next to the config file run before
(pre-export) and after (post-export) the file is written.`,
		Example: `  pandemap snapshot -o map.svg
  pandemap snapshot -o map.png --date 2021-01-10 --dark
  pandemap snapshot -o covid.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(cmd); err != nil {
				return err
			}
			return runSnapshot(cmd, o, f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (.svg, .png or .db)")
	cmd.Flags().StringVar(&f.date, "date", "", "date to render, YYYY-MM-DD (default latest; nearest available is used)")
	cmd.Flags().BoolVar(&f.dark, "dark", false, "use the dark theme")
	cmd.Flags().IntVar(&f.width, "width", 960, "image width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 500, "image height in pixels")
	cmd.Flags().StringVar(&f.title, "title", "", "title drawn on the image (default mentions the date)")
	cmd.Flags().BoolVar(&f.noHook, "no-hooks", false, "skip export hooks")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// loadDate runs the health probe and selects day, or the latest date when
// day is empty.
func loadDate(ctx context.Context, dash *dashboard.Dashboard, day string) (timeline.Result, error) {
	if _, err := dash.CheckHealth(ctx); err != nil {
		return timeline.Result{}, err
	}
	if _, err := dash.LoadDates(ctx); err != nil {
		return timeline.Result{}, fmt.Errorf("loading dates: %w", err)
	}
	if day == "" {
		return dash.SelectLatest(ctx)
	}
	return dash.Timeline().SelectDate(ctx, day)
}

func runSnapshot(cmd *cobra.Command, o *options, f snapshotFlags) error {
	format, err := export.DetectFormat(f.output)
	if err != nil {
		return err
	}
	if f.width <= 0 || f.height <= 0 {
		return errors.New("--width and --height must be positive")
	}

	ctx := cmd.Context()
	client := o.client(stderrNotifier(cmd))
	store := state.New(nil)
	dash := dashboard.New(client, store, o.geometryLoader(client),
		dashboard.WithTransition(0),
		dashboard.WithViewport(float64(f.width), float64(f.height)))

	res, err := loadDate(ctx, dash, f.date)
	if err != nil {
		return err
	}
	if res.Coerced() {
		cmd.PrintErrf("no data for %s, using %s\n", res.Requested, res.Date)
	}
	if f.dark {
		_, _ = store.ToggleDarkMode()
	}

	var r *mapview.Renderer
	if format != export.FormatSQLite {
		if r, err = dash.InitMap(ctx); err != nil {
			return err
		}
	}

	st := store.State()
	title := f.title
	if title == "" {
		title = "COVID-19 " + mapview.LegendTitle + ", " + st.CurrentDate
	}
	countries := 0
	if st.Dataset != nil {
		countries = len(st.Dataset.Countries)
	}
	exec, err := exportHooks(cmd, o, f, hooks.ExportContext{
		Path:      f.output,
		Format:    format,
		Date:      st.CurrentDate,
		Countries: countries,
		Source:    o.cfg.API.BaseURL,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}
	if exec != nil {
		defer func() {
			if s := exec.Summary(); s != "" {
				cmd.PrintErr(s)
			}
		}()
		if err := exec.RunPreExport(ctx); err != nil {
			return err
		}
	}

	err = export.SaveSnapshot(export.SnapshotOptions{
		Path:     f.output,
		Format:   format,
		Width:    f.width,
		Height:   f.height,
		Title:    title,
		Renderer: r,
		Dataset:  st.Dataset,
		Stats:    st.Stats,
		Source:   o.cfg.API.BaseURL,
	})
	if err != nil {
		return err
	}
	cmd.Printf("Wrote %s (%s, %s)\n", f.output, format, st.CurrentDate)
	if exec != nil {
		return exec.RunPostExport(ctx)
	}
	return nil
}

// exportHooks loads hooks.yaml from the config directory.
func exportHooks(cmd *cobra.Command, o *options, f snapshotFlags, ec hooks.ExportContext) (*hooks.Executor, error) {
	path := o.resolvedConfigPath()
	if path == "" {
		return nil, nil
	}
	exec, warnings, err := hooks.RunHooks(filepath.Dir(path), ec, f.noHook)
	for _, w := range warnings {
		cmd.PrintErrf("hooks: %s\n", w)
	}
	return exec, err
}
