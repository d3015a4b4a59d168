// Command pandemap is a terminal dashboard for COVID-19 figures by country.
// It also renders map snapshots, prints figures, writes its config file and
// serves a fixture backend for offline use.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
