package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"icsv/internal/table"
)

// previewRows is how much of a sheet the header chooser gets to see.
const previewRows = 5

// Spreadsheet loads one worksheet of an xlsx/xlsm workbook.
type Spreadsheet struct {
	// Sheet selects the worksheet by name, or by 0-based index when it
	// parses as an integer. Empty means the first sheet.
	Sheet string

	// Header picks the 1-based header row (0 = synthesize positional
	// names). Nil means the first row.
	Header HeaderChooser
}

func (l *Spreadsheet) Load(path string) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}
	defer f.Close()

	sheet, err := ResolveSheet(f.GetSheetList(), l.Sheet)
	if err != nil {
		return table.Table{}, err
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: read sheet %q: %w", ErrInputAccess, sheet, err)
	}

	headerRow := 1
	if l.Header != nil {
		headerRow, err = l.Header.Choose(sheet, Preview(all))
		if err != nil {
			return table.Table{}, err
		}
	}
	return SheetTable(all, sheet, headerRow)
}

// ResolveSheet maps a sheet selector to a worksheet name. Names win over
// indices, so a sheet literally named "1" stays addressable.
func ResolveSheet(sheets []string, sel string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrInputAccess)
	}
	if strings.TrimSpace(sel) == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == sel {
			return name, nil
		}
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(sel)); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("%w: sheet index %d out of range (workbook has %d sheets)", ErrInputAccess, idx, len(sheets))
		}
		return sheets[idx], nil
	}
	return "", fmt.Errorf("%w: sheet %q not found", ErrInputAccess, sel)
}

// SheetTable shapes raw worksheet rows into a table: header selection or
// positional synthesis, then all-empty row and column dropping. split_xlsx
// calls it directly, once per sheet.
func SheetTable(all [][]string, sheet string, headerRow int) (table.Table, error) {
	switch {
	case headerRow < 0:
		return table.Table{}, fmt.Errorf("%w: header row %d", ErrInputAccess, headerRow)
	case headerRow > len(all):
		return table.Table{}, fmt.Errorf("%w: header row %d beyond sheet %q with %d rows", ErrInputAccess, headerRow, sheet, len(all))
	}

	var header []string
	var data [][]string
	if headerRow == 0 {
		data = all
		header = positionalNames(maxWidth(data))
	} else {
		src := all[headerRow-1]
		header = make([]string, len(src))
		for i, cell := range src {
			header[i] = strings.TrimSpace(cell)
		}
		data = all[headerRow:]
	}

	tbl := table.Table{Header: header, Rows: dropEmptyRows(data)}
	tbl.Normalize()
	tbl.Header, tbl.Rows = dropEmptyColumns(tbl.Header, tbl.Rows)
	return tbl, nil
}

// Preview bounds a sheet to the few rows a header chooser gets to see.
func Preview(rows [][]string) [][]string {
	if len(rows) > previewRows {
		return rows[:previewRows]
	}
	return rows
}

// positionalNames synthesizes headerless column names "0", "1", ….
func positionalNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

func maxWidth(rows [][]string) int {
	w := 0
	for _, row := range rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

func dropEmptyRows(rows [][]string) [][]string {
	var kept [][]string
	for _, row := range rows {
		if !allBlank(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

// dropEmptyColumns removes columns whose every data cell is blank. Emptiness
// is judged on data only, so a named but valueless column still drops; with
// zero data rows nothing drops. Rows must be normalized to header width.
func dropEmptyColumns(header []string, rows [][]string) ([]string, [][]string) {
	if len(rows) == 0 {
		return header, rows
	}

	keep := make([]bool, len(header))
	kept := 0
	for j := range header {
		for _, row := range rows {
			if strings.TrimSpace(row[j]) != "" {
				keep[j] = true
				kept++
				break
			}
		}
	}
	if kept == len(header) {
		return header, rows
	}

	outHeader := make([]string, 0, kept)
	for j, k := range keep {
		if k {
			outHeader = append(outHeader, header[j])
		}
	}
	outRows := make([][]string, len(rows))
	for i, row := range rows {
		out := make([]string, 0, kept)
		for j, k := range keep {
			if k {
				out = append(out, row[j])
			}
		}
		outRows[i] = out
	}
	return outHeader, outRows
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
