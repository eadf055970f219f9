// Command make_icsv converts a plain tabular file (delimited text, xlsx/xlsm
// workbook or HTML table) into a self-describing iCSV 1.0 document plus a
// JSON schema, optionally ingesting the converted table into a SQL backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"icsv/internal/config"
	"icsv/internal/icsv"
	"icsv/internal/loader"
	"icsv/internal/logging"
	"icsv/internal/metrics"
	"icsv/internal/metrics/datadog"
	"icsv/internal/missing"
	"icsv/internal/storage"

	// Register all storage backends; -store picks one at runtime.
	_ "icsv/internal/storage/all"
)

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// options is the resolved flag set of one run. Config file values fill the
// fields the command line left untouched.
type options struct {
	in        string
	out       string
	schemaOut string

	delimiter string
	encoding  string
	nodata    string
	nodataSet bool
	app       string

	sheet     string
	headerRow int

	configPath string

	logLevel  string
	logFormat string

	metricsOn   bool
	metricsTags string

	store string
	dsn   string
	table string
}

// runMain is the testable entry point: it parses flags, wires logging and
// metrics, and executes the conversion. Usage errors return 2, everything
// else that fails returns 1.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("make_icsv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.in, "in", "", "input file (delimited text, .xlsx/.xlsm, .html)")
	fs.StringVar(&o.out, "out", "", "output iCSV path (default: input with .icsv extension)")
	fs.StringVar(&o.schemaOut, "schema-out", "", "output schema JSON path (default: input with _schema.json suffix)")
	fs.StringVar(&o.delimiter, "delimiter", "", "input field delimiter (default: sniffed)")
	fs.StringVar(&o.encoding, "encoding", "", "input charset: utf-8, latin-1, windows-1252, utf-16le, utf-16be")
	fs.StringVar(&o.nodata, "nodata", "", "override the nodata token verbatim")
	fs.StringVar(&o.app, "app", "", "application_profile metadata value")
	fs.StringVar(&o.sheet, "sheet", "", "worksheet name or 0-based index (spreadsheets)")
	fs.IntVar(&o.headerRow, "header-row", 1, "1-based header row for spreadsheets (0 = positional names)")
	fs.StringVar(&o.configPath, "config", "", "YAML config path (default: search for icsv.yaml upwards)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVar(&o.metricsOn, "metrics", false, "enable the Datadog metrics backend")
	fs.StringVar(&o.metricsTags, "metrics-tags", "", "extra metric tags, comma-separated key:value pairs")
	fs.StringVar(&o.store, "store", "", "storage backend for ingestion: sqlite, postgres, mssql")
	fs.StringVar(&o.dsn, "dsn", "", "storage DSN")
	fs.StringVar(&o.table, "table", "", "destination table name (enables ingestion)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(o.in) == "" {
		fmt.Fprintln(stderr, "usage: make_icsv -in <file> [flags]")
		return 2
	}

	seen := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	o.nodataSet = seen["nodata"]

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	applyConfig(&o, seen, cfg)

	logging.Setup(o.logLevel, o.logFormat)

	cleanup, err := initMetrics(ctx, o.metricsOn, datadog.ParseTagsCSV(o.metricsTags))
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := run(ctx, o, stdout); err != nil {
		slog.Error("conversion failed", "in", o.in, "error", err)
		fmt.Fprintf(stderr, "make_icsv: %v\n", err)
		return 1
	}
	return 0
}

// applyConfig fills flag values the command line left untouched from the
// config file. Flags always win.
func applyConfig(o *options, seen map[string]bool, cfg config.Config) {
	if !seen["delimiter"] && cfg.Delimiter != "" {
		o.delimiter = cfg.Delimiter
	}
	if !seen["encoding"] && cfg.Encoding != "" {
		o.encoding = cfg.Encoding
	}
	if !seen["nodata"] && cfg.Nodata != nil {
		o.nodata = *cfg.Nodata
		o.nodataSet = true
	}
	if !seen["app"] && cfg.AppProfile != "" {
		o.app = cfg.AppProfile
	}
	if !seen["store"] && cfg.Store != "" {
		o.store = cfg.Store
	}
	if !seen["dsn"] && cfg.DSN != "" {
		o.dsn = cfg.DSN
	}
	if !seen["metrics"] && cfg.Metrics {
		o.metricsOn = true
	}
	if !seen["metrics-tags"] && cfg.MetricsTags != "" {
		o.metricsTags = cfg.MetricsTags
	}
	if !seen["log-level"] && cfg.LogLevel != "" {
		o.logLevel = cfg.LogLevel
	}
	if !seen["log-format"] && cfg.LogFormat != "" {
		o.logFormat = cfg.LogFormat
	}
}

// metricsBackend is the slice of the Datadog backend the CLI needs.
type metricsBackend interface {
	Close() error
}

// Seams for tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	setMetricsBackend = func(b any) {
		if mb, ok := b.(metrics.Backend); ok {
			metrics.SetBackend(mb)
		}
	}
	logPrintf = log.Printf
)

// initMetrics wires the Datadog backend when enabled. The returned cleanup
// stops the flush loop and submits buffered series; it is always non-nil and
// safe to call.
func initMetrics(ctx context.Context, enabled bool, tags []string) (func(), error) {
	if !enabled {
		// metrics disabled; nop backend remains
		return func() {}, nil
	}

	b, err := newDatadogBackend(ctx, datadog.Options{JobName: "make_icsv", Tags: tags})
	if err != nil {
		return func() {}, err
	}
	setMetricsBackend(b)

	return func() {
		if err := b.Close(); err != nil {
			logPrintf("metrics: datadog close error: %v", err)
		}
	}, nil
}

// run executes the conversion: load, infer, write both artifacts, and
// optionally ingest the converted table.
func run(ctx context.Context, o options, stdout io.Writer) error {
	lopts := loader.Options{
		Delimiter: o.delimiter,
		Encoding:  o.encoding,
		Sheet:     o.sheet,
		Header:    loader.FixedHeader(o.headerRow),
	}
	ld, err := loader.ForPath(o.in, lopts)
	if err != nil {
		return err
	}

	loadStart := time.Now()
	tbl, err := ld.Load(o.in)
	if err != nil {
		metrics.RecordStep("load", "error", time.Since(loadStart))
		return err
	}
	metrics.RecordStep("load", "ok", time.Since(loadStart))

	// The output delimiter derives from the effective input delimiter; for
	// delimited text that is the sniffed one, which only Load knows.
	inDelim := o.delimiter
	if d, ok := ld.(*loader.Delimited); ok {
		inDelim = d.UsedDelimiter()
	}

	bopts := icsv.Options{
		OutputDelim: loader.OutputDelimiter(inDelim),
		AppProfile:  o.app,
		Logger:      slog.Default(),
	}
	if o.nodataSet {
		nodata := o.nodata
		bopts.Nodata = &nodata
	}

	inferStart := time.Now()
	doc, sch := icsv.Build(tbl, missing.DefaultSet(), bopts)
	metrics.RecordStep("infer", "ok", time.Since(inferStart))
	metrics.RecordRows("converted", len(doc.Rows))

	types := make([]string, len(doc.Profiles))
	for i, p := range doc.Profiles {
		types[i] = string(p.Type)
	}
	metrics.RecordColumns(types)

	outPath := o.out
	if outPath == "" {
		outPath = defaultOutPath(o.in, ".icsv")
	}
	schemaPath := o.schemaOut
	if schemaPath == "" {
		schemaPath = defaultOutPath(o.in, "_schema.json")
	}

	writeStart := time.Now()
	err = writeFile(outPath, func(w io.Writer) error { return icsv.WriteDocument(w, doc) })
	if err == nil {
		err = writeFile(schemaPath, func(w io.Writer) error { return icsv.WriteSchema(w, sch) })
	}
	if err != nil {
		metrics.RecordStep("write", "error", time.Since(writeStart))
		return err
	}
	metrics.RecordStep("write", "ok", time.Since(writeStart))

	slog.Info("document written",
		"in", o.in,
		"out", outPath,
		"schema", schemaPath,
		"rows", doc.Meta.Rows,
		"columns", doc.Meta.Columns,
	)
	fmt.Fprintf(stdout, "wrote %s and %s (%d rows, %d columns)\n",
		outPath, schemaPath, doc.Meta.Rows, doc.Meta.Columns)

	if o.table != "" {
		ingestStart := time.Now()
		n, err := ingest(ctx, o, doc, sch)
		if err != nil {
			metrics.RecordStep("ingest", "error", time.Since(ingestStart))
			return err
		}
		metrics.RecordStep("ingest", "ok", time.Since(ingestStart))
		metrics.RecordRows("ingested", int(n))

		slog.Info("rows ingested", "store", o.store, "table", o.table, "rows", n)
		fmt.Fprintf(stdout, "ingested %d rows into table %s\n", n, o.table)
	}
	return nil
}

// ingest creates the destination table from the schema and inserts every
// data row. Failures carry the backend kind and table in the chain.
func ingest(ctx context.Context, o options, doc icsv.Document, sch icsv.Schema) (int64, error) {
	kind := o.store
	if kind == "" {
		kind = "sqlite"
	}

	repo, err := storage.New(ctx, storage.Config{Kind: kind, DSN: o.dsn})
	if err != nil {
		return 0, fmt.Errorf("storage %s: %w", kind, err)
	}
	defer repo.Close()

	spec := storage.SpecFromSchema(o.table, sch)
	if err := repo.EnsureTable(ctx, spec); err != nil {
		return 0, fmt.Errorf("storage %s table %s: %w", kind, o.table, err)
	}

	vals, err := storage.ValuesForInsert(sch, missing.DefaultSet(), doc.Rows)
	if err != nil {
		return 0, fmt.Errorf("storage %s table %s: %w", kind, o.table, err)
	}

	n, err := repo.InsertRows(ctx, spec.Name, spec.ColumnNames(), vals)
	if err != nil {
		return 0, fmt.Errorf("storage %s table %s: %w", kind, o.table, err)
	}
	return n, nil
}

// defaultOutPath derives an output name from the input path with its
// extension removed.
func defaultOutPath(in, suffix string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + suffix
}

// writeFile creates path and hands it to write; create, write and close
// failures all surface as output failures.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", icsv.ErrOutputWrite, path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", icsv.ErrOutputWrite, path, err)
	}
	return nil
}
