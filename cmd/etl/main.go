// Command etl runs one gated pipeline described by a JSON config file:
// extract, transform, quality gate, then load. It exits 0 when the run
// succeeds, 1 on configuration or setup errors and 2 when the run fails in
// any phase, including a quality-gate veto.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"etlgate/internal/build"
	"etlgate/internal/config"
	"etlgate/internal/metrics"
	"etlgate/internal/metrics/datadog"
	"etlgate/internal/metrics/prompush"
	"etlgate/internal/report"
)

const (
	exitOK     = 0
	exitConfig = 1
	exitFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	cfgPath        string
	validate       bool
	plan           bool
	reportPath     string
	metricsBackend string
	pushGatewayURL string
	datadogAddr    string
	verbose        bool
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path")
	fs.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&f.plan, "plan", false, "print the execution plan as Graphviz DOT and exit")
	fs.StringVar(&f.reportPath, "report", "", "write the run report JSON here (overrides report.path)")
	fs.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (env METRICS_BACKEND)")
	fs.StringVar(&f.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	fs.StringVar(&f.datadogAddr, "datadog-addr", "", "DogStatsD address (env DD_DOGSTATSD_ADDR)")
	fs.BoolVar(&f.verbose, "v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// firstNonEmpty implements flag → env → default.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return exitConfig
	}
	log := newLogger(stderr, f.verbose)

	p, err := config.Load(f.cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return exitConfig
	}

	if f.validate {
		issues := config.ValidatePipeline(p)
		for _, iss := range issues {
			fmt.Fprintf(stdout, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		}
		if config.HasErrors(issues) {
			log.Error().Str("config", f.cfgPath).Msg("configuration is invalid")
			return exitConfig
		}
		log.Info().Str("config", f.cfgPath).Msg("configuration is valid")
		return exitOK
	}

	var closeMetrics func()
	if !f.plan {
		closeMetrics, err = setupMetrics(f, p.Job, log)
		if err != nil {
			log.Error().Err(err).Msg("metrics")
			return exitConfig
		}
		defer closeMetrics()
	}

	pl, err := build.FromConfig(p, build.Options{Logger: log, Recorder: metrics.NewPipelineRecorder()})
	if err != nil {
		log.Error().Err(err).Msg("build pipeline")
		return exitConfig
	}

	if f.plan {
		if err := pl.WritePlan(stdout); err != nil {
			log.Error().Err(err).Msg("plan")
			return exitConfig
		}
		return exitOK
	}

	res := pl.Run(ctx)
	fmt.Fprintln(stdout, report.Summary(res))

	if path := firstNonEmpty(f.reportPath, p.Report.Path); path != "" {
		if err := report.WriteFile(path, res); err != nil {
			log.Error().Err(err).Str("path", path).Msg("write report")
		} else {
			log.Debug().Str("path", path).Msg("report written")
		}
	}

	if !res.Succeeded() {
		return exitFailed
	}
	return exitOK
}

// setupMetrics installs the selected backend and returns a function that
// flushes it.
func setupMetrics(f flags, job string, log zerolog.Logger) (func(), error) {
	name := strings.ToLower(firstNonEmpty(f.metricsBackend, os.Getenv("METRICS_BACKEND"), "none"))
	if job == "" {
		job = "etl_job"
	}

	var b metrics.Backend
	closer := func() {}
	switch name {
	case "none":
		log.Debug().Msg("metrics: disabled")
		return closer, nil
	case "pushgateway":
		url := firstNonEmpty(f.pushGatewayURL, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		pb, err := prompush.NewBackend(job, url)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", name).Str("url", url).Str("job", job).Msg("metrics enabled")
		b = pb
	case "datadog":
		addr := firstNonEmpty(f.datadogAddr, os.Getenv("DD_DOGSTATSD_ADDR"), "127.0.0.1:8125")
		db, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "etl.", GlobalTags: []string{"job:" + job}})
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", name).Str("addr", addr).Msg("metrics enabled")
		b = db
		closer = func() { _ = db.Close() }
	default:
		return nil, fmt.Errorf("unknown metrics backend %q (want none, pushgateway or datadog)", name)
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics: flush")
		}
		closer()
	}, nil
}
