// Package export writes the current map and its data to files: SVG and PNG
// snapshots of the rendered map, and a SQLite database of the dataset.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/render"
)

// Supported formats.
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatSQLite = "sqlite"
)

// SnapshotOptions controls snapshot export.
type SnapshotOptions struct {
	Path     string // output path; format inferred from the extension when Format is empty
	Format   string // "svg", "png" or "sqlite"
	Width    int    // image size; the renderer is resized to it
	Height   int
	Title    string
	Renderer *mapview.Renderer // required for svg and png
	Dataset  *model.MapDataset // required for sqlite
	Stats    *model.GlobalStats
	Source   string    // backend URL, recorded in the sqlite metadata
	Now      time.Time // zero means time.Now; the transition is drawn as of this instant
}

// DetectFormat infers the export format from a path's extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG, nil
	case ".png":
		return FormatPNG, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case "":
		return "", fmt.Errorf("output path %q has no extension", path)
	default:
		return "", fmt.Errorf("unsupported output extension %q (want .svg, .png or .db)", filepath.Ext(path))
	}
}

// SaveSnapshot writes the export described by opts.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		f, err := DetectFormat(opts.Path)
		if err != nil {
			return err
		}
		format = f
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	switch format {
	case FormatSVG, FormatPNG:
		if opts.Renderer == nil {
			return fmt.Errorf("%s export needs a map", format)
		}
		if opts.Width > 0 && opts.Height > 0 {
			opts.Renderer.Resize(float64(opts.Width), float64(opts.Height))
		}
		if format == FormatSVG {
			return writeSVG(opts)
		}
		return writePNG(opts)
	case FormatSQLite:
		if opts.Dataset == nil {
			return fmt.Errorf("sqlite export needs a dataset")
		}
		return ExportSQLite(opts.Path, opts.Dataset, opts.Stats, opts.Source)
	default:
		return fmt.Errorf("unsupported format %q (want svg, png or sqlite)", format)
	}
}

func drawOptions(opts SnapshotOptions) mapview.DrawOptions {
	return mapview.DrawOptions{Legend: true, Popup: true, Title: opts.Title}
}

func writeSVG(opts SnapshotOptions) error {
	f, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	w, h := opts.Renderer.Size()
	s := render.NewSVG(bw, int(w), int(h))
	opts.Renderer.Draw(s, opts.Now, drawOptions(opts))
	if err := s.Close(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return f.Close()
}

func writePNG(opts SnapshotOptions) error {
	w, h := opts.Renderer.Size()
	r := render.NewRaster(int(w), int(h))
	opts.Renderer.Draw(r, opts.Now, drawOptions(opts))

	f, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := r.EncodePNG(f); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
