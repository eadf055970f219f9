// Command split_xlsx converts the sheets of an xlsx/xlsm workbook to plain
// CSV files, one per sheet, so downstream tooling never has to touch the
// workbook format.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"icsv/internal/loader"
	"icsv/internal/table"
)

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runMain is the testable entry point. Usage errors return 2; a failed
// sheet is reported and skipped, and any failure makes the exit code 1.
func runMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("split_xlsx", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		in          string
		outdir      string
		sheets      string
		header      int
		interactive bool
	)
	fs.StringVar(&in, "in", "", "input workbook (.xlsx/.xlsm)")
	fs.StringVar(&outdir, "outdir", "", "output directory (default: input directory, created if missing)")
	fs.StringVar(&sheets, "sheets", "", "comma-separated sheet names or 0-based indices (default: all)")
	fs.IntVar(&header, "header", 1, "1-based header row for all sheets (0 = positional names)")
	fs.BoolVar(&interactive, "interactive", false, "preview each sheet and prompt for its header row")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(in) == "" {
		fmt.Fprintln(stderr, "usage: split_xlsx -in <workbook> [flags]")
		return 2
	}

	f, err := excelize.OpenFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "split_xlsx: open %s: %v\n", in, err)
		return 1
	}
	defer f.Close()

	selected, err := selectSheets(f.GetSheetList(), sheets)
	if err != nil {
		fmt.Fprintf(stderr, "split_xlsx: %v\n", err)
		return 1
	}

	if outdir == "" {
		outdir = filepath.Dir(in)
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		fmt.Fprintf(stderr, "split_xlsx: create outdir: %v\n", err)
		return 1
	}

	var chooser loader.HeaderChooser = loader.FixedHeader(header)
	if interactive {
		chooser = loader.Interactive{In: stdin, Out: stdout}
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	failed := 0
	for _, sheet := range selected {
		path, err := splitSheet(f, sheet, chooser, outdir, base)
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "split_xlsx: sheet %q: %v\n", sheet, err)
			continue
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// selectSheets resolves the -sheets selection against the workbook's sheet
// list. Empty means every sheet; otherwise each comma-separated part is a
// name or 0-based index, and a part that resolves nothing is an error.
func selectSheets(all []string, sel string) ([]string, error) {
	if strings.TrimSpace(sel) == "" {
		return all, nil
	}
	var out []string
	for _, part := range strings.Split(sel, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, err := loader.ResolveSheet(all, part)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// splitSheet shapes one sheet (header choice, empty row/column dropping) and
// writes it as CSV. Returns the written path.
func splitSheet(f *excelize.File, sheet string, chooser loader.HeaderChooser, outdir, base string) (string, error) {
	all, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("read sheet: %w", err)
	}

	headerRow, err := chooser.Choose(sheet, loader.Preview(all))
	if err != nil {
		return "", err
	}

	tbl, err := loader.SheetTable(all, sheet, headerRow)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outdir, base+"_"+sanitizeSheetName(sheet)+".csv")
	if err := writeCSV(path, tbl); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeSheetName maps a sheet name to a filename fragment: letters,
// digits, space, "_" and "-" pass through, every other rune becomes "_".
func sanitizeSheetName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		case r == ' ' || r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

func writeCSV(path string, tbl table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	err = w.Write(tbl.Header)
	for _, row := range tbl.Rows {
		if err != nil {
			break
		}
		err = w.Write(row)
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
