//go:build ignore

// generate_testdata.go writes fixture datasets for the fixture backend and
// for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/fixtures/small.json   (16 countries, 30 daily dates)
//	testdata/fixtures/medium.json  (60 countries, 365 daily dates)
//	testdata/fixtures/large.json   (200 countries, 1000 daily dates)
//	testdata/fixtures/sparse.json  (16 countries, 52 weekly dates, holes)
//	testdata/fixtures/world.geojson
//
// Serve one with: pandemap fixture --data testdata/fixtures/medium.json
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/pandemap/pkg/testutil"
)

type datasetSpec struct {
	name string
	cfg  testutil.GeneratorConfig
}

var datasets = []datasetSpec{
	{"small", testutil.GeneratorConfig{Seed: 30, Days: 30}},
	{"medium", testutil.GeneratorConfig{Seed: 365, Days: 365, Countries: 60}},
	{"large", testutil.GeneratorConfig{Seed: 1000, Days: 1000, Countries: 200}},
	{"sparse", testutil.GeneratorConfig{Seed: 52, Days: 52, Step: 7, Sparse: 0.2}},
}

func main() {
	outputDir := "testdata/fixtures"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		gen := testutil.New(ds.cfg)
		data := gen.Data()
		fmt.Printf("Generating %s dataset (%d countries, %d dates)...\n",
			ds.name, len(gen.Roster()), len(data.Dates))

		raw, err := testutil.MarshalData(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}
		path := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  Wrote %s (%d bytes)\n", path, len(raw))
	}

	// Grid geometry wide enough for the largest roster.
	world, err := testutil.New(testutil.GeneratorConfig{Seed: 1, Countries: 200}).World(10).MarshalJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode world: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(outputDir, "world.geojson")
	if err := os.WriteFile(path, world, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("  Wrote %s\n", path)
}
