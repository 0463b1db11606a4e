// Command probe samples the head of a file or URL, infers column types and
// prints a starter pipeline config for cmd/etl as JSON. The config is meant to
// be hand-edited before use.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"etlgate/internal/config"
	"etlgate/internal/datasource"
	"etlgate/internal/datasource/file"
	"etlgate/internal/datasource/httpds"
	"etlgate/internal/probe"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagPath     = fs.String("path", "", "local source file (csv, json or ndjson; .gz allowed)")
		flagURL      = fs.String("url", "", "remote source URL")
		flagFormat   = fs.String("format", "csv", "source format: csv, json or ndjson")
		flagComma    = fs.String("comma", ",", "CSV field delimiter")
		flagBytes    = fs.Int("bytes", probe.DefaultMaxBytes, "number of bytes to sample from the start of the source")
		flagName     = fs.String("name", "dataset", "job name; also names the load target")
		flagBackend  = fs.String("backend", "", "draft a sql load for this storage kind (sqlite, postgres, mssql, mysql); default writes CSV")
		flagInsecure = fs.Bool("allow-insecure", false, "skip TLS certificate verification for -url")
		flagColumns  = fs.Bool("columns", false, "print the inferred columns instead of a config")
		flagVerbose  = fs.Bool("v", false, "enable debug logs")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := zerolog.InfoLevel
	if *flagVerbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	var (
		src      datasource.Source
		kind     string
		location string
	)
	switch {
	case *flagPath != "" && *flagURL != "":
		fmt.Fprintln(stderr, "use either -path or -url, not both")
		return 2
	case *flagPath != "":
		src, kind, location = file.NewLocal(*flagPath), "file", *flagPath
	case *flagURL != "":
		cl := httpds.NewClient(httpds.Config{MaxRetries: 2, InsecureSkipVerify: *flagInsecure, Logger: &log})
		src, kind, location = httpds.NewSource(cl, *flagURL), "http", *flagURL
	default:
		fmt.Fprintln(stderr, "missing -path or -url")
		fs.Usage()
		return 2
	}

	parseOpts := config.Options{}
	if *flagFormat == "csv" && *flagComma != "," {
		parseOpts["comma"] = *flagComma
	}

	res, err := probe.Probe(ctx, src, probe.Options{
		Name:         *flagName,
		Kind:         kind,
		Location:     location,
		Format:       *flagFormat,
		ParseOptions: parseOpts,
		Backend:      *flagBackend,
		MaxBytes:     *flagBytes,
		Logger:       log,
	})
	if err != nil {
		log.Error().Err(err).Msg("probe failed")
		return 1
	}
	if res.Truncated {
		log.Info().Int("rows", res.Rows).Msg("sample truncated; types are inferred from the first rows only")
	}

	var out any = res.Pipeline
	if *flagColumns {
		out = res.Columns
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error().Err(err).Msg("encode")
		return 1
	}
	return 0
}
