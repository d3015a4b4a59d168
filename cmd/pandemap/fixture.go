package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/pandemap/internal/fixture"
)

func newFixtureCommand() *cobra.Command {
	var (
		addr     string
		dataPath string
		latency  time.Duration
		notReady bool
		logReqs  bool
	)
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Serve a fixture statistics backend",
		Long: `fixture serves the statistics API from a JSON file (or the built-in
sample) so the dashboard can run without the real backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := fixture.Sample()
			if dataPath != "" {
				d, err := fixture.Load(dataPath)
				if err != nil {
					return err
				}
				data = d
			}

			var opts []fixture.Option
			if latency > 0 {
				opts = append(opts, fixture.WithLatency(latency))
			}
			if notReady {
				opts = append(opts, fixture.WithNotReady())
			}
			if logReqs {
				opts = append(opts, fixture.WithRequestLog())
			}
			srv := fixture.New(data, opts...)

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()
			cmd.Printf("Serving %d dates on %s\n", len(data.Dates), addr)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	cmd.Flags().StringVar(&dataPath, "data", "", "fixture JSON file (default built-in sample)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "delay every response")
	cmd.Flags().BoolVar(&notReady, "not-ready", false, "report data_loaded=false from the probe endpoint")
	cmd.Flags().BoolVar(&logReqs, "log", false, "log requests")
	return cmd
}
