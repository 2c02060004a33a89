// Package main запускает консольного наблюдателя за полем телеметрии шлюза.
// Выводит историю поля за окно --history, затем новые значения раз в --interval.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"telemachus-gateway/internal/realtime"
)

func main() {
	flags := pflag.NewFlagSet("telemetry-watch", pflag.ExitOnError)
	gatewayURL := flags.String("gateway", "http://localhost:8080/proxy/telemachus", "gateway telemetry mount URL")
	field := flags.String("field", "", "Telemachus field to watch, e.g. v.altitude")
	interval := flags.Duration("interval", realtime.DefaultInterval, "poll interval")
	window := flags.Duration("history", 5*time.Minute, "history window printed on start (0 to skip)")
	strategy := flags.String("strategy", "", "history strategy: latest or minmax")
	size := flags.Int("size", 0, "sample count for the latest strategy")
	count := flags.Int("count", 0, "exit after this many live samples (0 to run until interrupted)")
	flags.Parse(os.Args[1:])

	if *field == "" {
		log.Fatal("--field is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := realtime.NewClient(*gatewayURL, 0)
	opts := options{
		Field:    *field,
		Interval: *interval,
		Window:   *window,
		Strategy: *strategy,
		Size:     *size,
		Count:    *count,
	}
	if err := watch(ctx, client, opts, os.Stdout); err != nil && err != context.Canceled {
		log.Fatalf("Watch failed: %v", err)
	}
}
