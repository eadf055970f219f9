// Command load_icsv ingests a written iCSV document into a SQL backend:
// it reads the document and its schema JSON, creates the destination table
// from the schema, inserts every data row and reports the count.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"icsv/internal/icsv"
	"icsv/internal/logging"
	"icsv/internal/missing"
	"icsv/internal/storage"

	// Register all storage backends; -store picks one at runtime.
	_ "icsv/internal/storage/all"
)

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	in     string
	schema string
	store  string
	dsn    string
	table  string

	logLevel  string
	logFormat string
}

// runMain is the testable entry point. Usage errors return 2, everything
// else that fails returns 1.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("load_icsv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.in, "in", "", "input iCSV document")
	fs.StringVar(&o.schema, "schema", "", "schema JSON path (default: input with _schema.json suffix)")
	fs.StringVar(&o.store, "store", "sqlite", "storage backend: sqlite, postgres, mssql")
	fs.StringVar(&o.dsn, "dsn", "", "storage DSN")
	fs.StringVar(&o.table, "table", "", "destination table name")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text, json")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(o.in) == "" || strings.TrimSpace(o.table) == "" {
		fmt.Fprintln(stderr, "usage: load_icsv -in <file.icsv> -table <name> [flags]")
		return 2
	}

	logging.Setup(o.logLevel, o.logFormat)

	if err := run(ctx, o, stdout); err != nil {
		slog.Error("ingestion failed", "in", o.in, "error", err)
		fmt.Fprintf(stderr, "load_icsv: %v\n", err)
		return 1
	}
	return 0
}

// run reads both artifacts, creates the destination table from the schema
// and inserts every data row.
func run(ctx context.Context, o options, stdout io.Writer) error {
	doc, err := readDocument(o.in)
	if err != nil {
		return err
	}

	schemaPath := o.schema
	if schemaPath == "" {
		schemaPath = strings.TrimSuffix(o.in, filepath.Ext(o.in)) + "_schema.json"
	}
	sch, err := readSchema(schemaPath)
	if err != nil {
		return err
	}

	// The schema drives column names, types and order; a width mismatch
	// means the two files are not from the same run.
	if len(doc.Header) > 0 && len(sch.Fields) != len(doc.Header) {
		return fmt.Errorf("schema %s has %d fields, document %s has %d columns",
			schemaPath, len(sch.Fields), o.in, len(doc.Header))
	}

	repo, err := storage.New(ctx, storage.Config{Kind: o.store, DSN: o.dsn})
	if err != nil {
		return fmt.Errorf("storage %s: %w", o.store, err)
	}
	defer repo.Close()

	spec := storage.SpecFromSchema(o.table, sch)
	if err := repo.EnsureTable(ctx, spec); err != nil {
		return fmt.Errorf("storage %s table %s: %w", o.store, o.table, err)
	}

	vals, err := storage.ValuesForInsert(sch, missing.DefaultSet(), doc.Rows)
	if err != nil {
		return fmt.Errorf("storage %s table %s: %w", o.store, o.table, err)
	}

	n, err := repo.InsertRows(ctx, spec.Name, spec.ColumnNames(), vals)
	if err != nil {
		return fmt.Errorf("storage %s table %s: %w", o.store, o.table, err)
	}

	slog.Info("rows ingested", "store", o.store, "table", o.table, "rows", n)
	fmt.Fprintf(stdout, "ingested %d rows into table %s\n", n, o.table)
	return nil
}

func readDocument(path string) (icsv.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return icsv.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := icsv.ReadDocument(f)
	if err != nil {
		return icsv.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

func readSchema(path string) (icsv.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return icsv.Schema{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sch, err := icsv.ReadSchema(f)
	if err != nil {
		return icsv.Schema{}, fmt.Errorf("read %s: %w", path, err)
	}
	return sch, nil
}
