package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/pandemap/pkg/api"
	"github.com/vanderheijden86/pandemap/pkg/dashboard"
	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
	"github.com/vanderheijden86/pandemap/pkg/resolver"
	"github.com/vanderheijden86/pandemap/pkg/state"
)

type statsFlags struct {
	date    string
	country string
	top     bool
	json    bool
}

func newStatsCommand(o *options) *cobra.Command {
	var f statsFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print global figures, one country, or the top countries",
		Example: `  pandemap stats
  pandemap stats --date 2021-01-10
  pandemap stats --country "U.S.A."
  pandemap stats --top --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(cmd); err != nil {
				return err
			}
			return runStats(cmd, o, f)
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "date, YYYY-MM-DD (default latest; nearest available is used)")
	cmd.Flags().StringVar(&f.country, "country", "", "show one country's latest figures and recent days")
	cmd.Flags().BoolVar(&f.top, "top", false, "show the countries with the most cases and deaths")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of text")
	cmd.MarkFlagsMutuallyExclusive("country", "top")
	return cmd
}

func runStats(cmd *cobra.Command, o *options, f statsFlags) error {
	ctx := cmd.Context()
	client := o.client(stderrNotifier(cmd))
	out := cmd.OutOrStdout()

	if f.top {
		tc, err := client.TopCountries(ctx)
		if err != nil {
			return err
		}
		if f.json {
			return writeJSON(out, tc)
		}
		printRanking(out, "Most cases", tc.ByCases)
		fmt.Fprintln(out)
		printRanking(out, "Most deaths", tc.ByDeaths)
		return nil
	}

	store := state.New(nil)
	dash := dashboard.New(client, store, nil)
	res, err := loadDate(ctx, dash, f.date)
	if err != nil {
		return err
	}
	if res.Coerced() {
		cmd.PrintErrf("no data for %s, using %s\n", res.Requested, res.Date)
	}
	st := store.State()

	if f.country != "" {
		return printCountry(cmd, client, st.Dataset, f)
	}
	if f.json {
		return writeJSON(out, st.Stats)
	}
	printGlobal(out, st.Stats, st.Dataset)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var labelStyle = lipgloss.NewStyle().Bold(true)

func printGlobal(w io.Writer, gs *model.GlobalStats, ds *model.MapDataset) {
	fmt.Fprintln(w, labelStyle.Render("Global figures, "+gs.Date))
	fmt.Fprintf(w, "  Total Cases:     %s\n", humanize.Comma(gs.TotalCases))
	fmt.Fprintf(w, "  Total Deaths:    %s\n", humanize.Comma(gs.TotalDeaths))
	fmt.Fprintf(w, "  Countries:       %s\n", humanize.Comma(int64(gs.TotalCountries)))
	if ds == nil {
		return
	}
	counts := make(map[mapview.Bucket]int)
	for _, rec := range ds.Countries {
		counts[mapview.BucketFor(rec, true)]++
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, labelStyle.Render(mapview.LegendTitle))
	for _, b := range mapview.Legend() {
		if b == mapview.NoData {
			continue
		}
		fmt.Fprintf(w, "  %-10s %d\n", b.Label(), counts[b])
	}
}

func printCountry(cmd *cobra.Command, client *api.Client, ds *model.MapDataset, f statsFlags) error {
	out := cmd.OutOrStdout()
	name := f.country
	rec, ok := resolver.Resolve(name, ds)
	if ok {
		name = rec.Country
	}
	cd, err := client.CountryDetail(cmd.Context(), name)
	if err != nil {
		return err
	}
	if f.json {
		return writeJSON(out, cd)
	}

	ls := cd.LatestStats
	fmt.Fprintln(out, labelStyle.Render(cd.Country))
	fmt.Fprintf(out, "  Total Cases:        %s\n", humanize.Comma(ls.TotalCases))
	fmt.Fprintf(out, "  Total Deaths:       %s\n", humanize.Comma(ls.TotalDeaths))
	fmt.Fprintf(out, "  Cases per Million:  %s\n", humanize.CommafWithDigits(ls.CasesPerMillion, 2))
	fmt.Fprintf(out, "  Deaths per Million: %s\n", humanize.CommafWithDigits(ls.DeathsPerMillion, 2))
	if ok {
		fmt.Fprintf(out, "  Level on %s:   %s\n", ds.Date, mapview.BucketFor(rec, true).Label())
	}
	if len(cd.DailyData) == 0 {
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "New cases", "New deaths")
	for _, d := range cd.DailyData {
		t.Row(d.Date, humanize.Comma(d.NewCases), humanize.Comma(d.NewDeaths))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, t.Render())
	return nil
}

func printRanking(w io.Writer, title string, rows []model.RankedCountry) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Country", "Cases", "Deaths")
	for i, r := range rows {
		t.Row(strconv.Itoa(i+1), r.Country, humanize.Comma(r.Cases), humanize.Comma(r.Deaths))
	}
	fmt.Fprintln(w, labelStyle.Render(title))
	fmt.Fprintln(w, t.Render())
}
