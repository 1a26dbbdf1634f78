// Command tabcat prints the rows of a file table as tab-separated text.
//
// Options are given as key:value (or key=value) arguments, the location as a
// bare argument, optionally on top of a JSON options file:
//
//	tabcat header:t strict:0 data.csv.gz
//	tabcat -config table.json toj:2
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"tabsource/internal/config"
	"tabsource/internal/filetable"
	"tabsource/internal/logging"
	"tabsource/internal/metrics"
	"tabsource/internal/metrics/datadog"
	"tabsource/internal/metrics/prompush"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fatalf("tabcat: %v", err)
	}
}

// run is main without the process exit, so it can be tested.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tabcat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        string
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
		job            string
		logLevel       string
		logFormat      string
		cacheDir       string
		validate       bool
		noHeader       bool
		limit          int
	)
	fs.StringVar(&cfgPath, "config", "", "JSON file with table options")
	fs.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (default env METRICS_BACKEND)")
	fs.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&statsdAddr, "dogstatsd-addr", "", "DogStatsD address (overrides env DD_DOGSTATSD_ADDR)")
	fs.StringVar(&job, "job", "tabcat", "job name for metrics")
	fs.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	fs.StringVar(&cacheDir, "cache-dir", "", "directory for cached remote archives (default: system temp)")
	fs.BoolVar(&validate, "validate", false, "validate the options and exit")
	fs.BoolVar(&noHeader, "no-header", false, "do not print the column names")
	fs.IntVar(&limit, "limit", 0, "stop after this many rows (0: all)")
	verbose := fs.Bool("v", false, "enable verbose logs (same as -log-level debug)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		logLevel = "debug"
	}
	log := logging.Setup(stderr, logLevel, logFormat)
	ctx = logging.WithLogger(ctx, log)

	opts, err := loadOptions(cfgPath, fs.Args())
	if err != nil {
		return err
	}
	tbl, err := filetable.New(opts,
		filetable.WithLogger(log),
		filetable.WithJob(job),
		filetable.WithCacheDir(cacheDir),
	)
	if err != nil {
		return err
	}

	hasError := false
	for _, iss := range config.Lint(tbl.Config()) {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		return fmt.Errorf("options are invalid")
	}
	if validate {
		log.Info("options are valid", "location", tbl.Config().Location)
		return nil
	}

	if flush := setupMetrics(log, metricsBackend, job, pushGatewayURL, statsdAddr); flush != nil {
		defer flush()
	}
	defer func() {
		if err := tbl.Destroy(); err != nil {
			log.Warn("remove cached files", "err", err)
		}
	}()

	start := time.Now()
	n, err := printTable(ctx, tbl, stdout, !noHeader, limit)
	if err != nil {
		return err
	}
	log.Debug("completed", "rows", n, "elapsed", time.Since(start).Truncate(time.Millisecond))
	return nil
}

// loadOptions reads the optional JSON options file and lays the
// command-line arguments over it.
func loadOptions(path string, args []string) (config.Options, error) {
	opts := config.Options{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&opts); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	argOpts, err := config.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	for k, v := range argOpts {
		opts[k] = v
	}
	return opts, nil
}

func printTable(ctx context.Context, tbl *filetable.Table, w io.Writer, header bool, limit int) (n int, err error) {
	cur, err := tbl.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := cur.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(w)
	if header {
		fmt.Fprintln(bw, strings.Join(cur.Describe().Names(), "\t"))
	}
	for limit <= 0 || n < limit {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			bw.Flush()
			return n, err
		}
		fmt.Fprintln(bw, row.Join("\t"))
		n++
	}
	return n, bw.Flush()
}

// setupMetrics installs the chosen backend and returns the function that
// flushes it, or nil when metrics stay disabled. Backend failures are logged
// and leave the nop backend in place.
func setupMetrics(log *slog.Logger, name, job, gwURL, statsdAddr string) func() {
	if name == "" {
		name = os.Getenv("METRICS_BACKEND")
	}
	var (
		b   metrics.Backend
		err error
	)
	switch name {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err = prompush.NewBackend(job, gwURL)
	case "datadog":
		if statsdAddr == "" {
			statsdAddr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if statsdAddr == "" {
			statsdAddr = "127.0.0.1:8125"
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       statsdAddr,
			GlobalTags: []string{"job:" + job},
		})
	case "", "none":
		return nil
	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", name)
		return nil
	}
	if err != nil {
		log.Warn("metrics backend init failed; using nop", "backend", name, "err", err)
		return nil
	}

	log.Debug("metrics enabled", "backend", name, "job", job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", "err", err)
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
