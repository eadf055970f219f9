// Package loader turns input files into the in-memory string table the
// inference engine consumes.
//
// Loading is a capability: every variant (delimited text, spreadsheet, HTML
// table) produces the same header + rows shape, so the engine never knows
// which format it came from. Selection is by file extension, overridable by
// constructing a concrete loader directly.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"icsv/internal/table"
)

// ErrInputAccess marks inputs that exist in principle but cannot be read:
// missing files, permission trouble, undecodable bytes, a sheet selection
// that does not resolve.
var ErrInputAccess = errors.New("input access failure")

// ErrUnsupportedFormat marks inputs no loader variant handles.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Loader is the loading capability: produce header + rows from a path.
type Loader interface {
	Load(path string) (table.Table, error)
}

// Options carries the per-run knobs a caller may set before loader
// selection. Fields irrelevant to the selected variant are ignored.
type Options struct {
	// Delimiter forces the input field delimiter for delimited text.
	// Empty means sniff from a sample.
	Delimiter string

	// Encoding names the source charset for delimited text. Empty means
	// UTF-8.
	Encoding string

	// Sheet selects the worksheet by name, or by 0-based index when it
	// parses as an integer. Empty means the first sheet.
	Sheet string

	// Header chooses the header row for spreadsheet inputs. Nil means the
	// first row.
	Header HeaderChooser
}

// ForPath selects the loader variant for a path by extension:
// .xlsx/.xlsm → spreadsheet, .html/.htm → HTML table, anything else is
// treated as delimited text. Legacy binary workbooks (.xls) are rejected.
func ForPath(path string, opts Options) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return &Spreadsheet{Sheet: opts.Sheet, Header: opts.Header}, nil
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbook (convert to .xlsx)", ErrUnsupportedFormat)
	case ".html", ".htm":
		return &HTMLTable{}, nil
	default:
		return &Delimited{Delimiter: opts.Delimiter, Encoding: opts.Encoding}, nil
	}
}

// OutputDelimiter maps the input delimiter to the delimiter of the produced
// document. A comma is always substituted with "|" so data rows cannot
// collide with the comment-prefixed metadata punctuation; every other
// delimiter is reused as-is.
func OutputDelimiter(input string) string {
	if input == "," || input == "" {
		return "|"
	}
	return input
}
