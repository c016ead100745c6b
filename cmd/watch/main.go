package main

// Start a backend job and wait for it to settle:
//   go run ./cmd/watch -source coupang -id 12345 -kind collect

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-backend/internal/backend"
	"review-backend/internal/jobs"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	source := fs.String("source", "", "product source platform (e.g. coupang)")
	id := fs.String("id", "", "source product id")
	kind := fs.String("kind", string(jobs.KindCollect), "job kind: collect, analyze or recollect")
	interval := fs.Duration("interval", cfg.JobPollInterval, "poll interval (clamped to 2s-5s)")
	timeout := fs.Duration("timeout", cfg.JobTimeout, "give up after this long")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *source == "" || *id == "" {
		fmt.Fprintln(os.Stderr, "watch: -source and -id are required")
		fs.Usage()
		return 2
	}
	telemetry.SetLevel(cfg.LogLevel)

	client, err := backend.New(backend.Options{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := jobs.NewWatcher(client, jobs.Options{
		Interval: *interval,
		Timeout:  *timeout,
		OnStatus: func(status backend.AnalysisStatus) {
			info := status.Info()
			fmt.Printf("%s %s %s\n", time.Now().Format(time.TimeOnly), info.Icon, info.Text)
		},
	})

	product, err := watcher.Run(ctx, jobs.Kind(*kind), *source, *id)
	switch {
	case err == nil:
		fmt.Printf("done: %s (%s)\n", product.Title, product.AnalysisStatus)
		return 0
	case errors.Is(err, jobs.ErrJobFailed):
		fmt.Fprintln(os.Stderr, "watch: backend reported FAILED")
		return 1
	case errors.Is(err, jobs.ErrTimeout):
		fmt.Fprintf(os.Stderr, "watch: no result after %s\n", *timeout)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		return 1
	}
}
