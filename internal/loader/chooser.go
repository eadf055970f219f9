package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HeaderChooser decides which spreadsheet row is the header. The returned
// index is 1-based; 0 means "no header row", letting the loader synthesize
// positional column names. Interactive and scripted callers share this
// contract.
type HeaderChooser interface {
	Choose(sheet string, preview [][]string) (int, error)
}

// FixedHeader is the scripted chooser: it always returns its own value.
type FixedHeader int

func (f FixedHeader) Choose(string, [][]string) (int, error) { return int(f), nil }

// Interactive prompts on Out with a short sheet preview and reads the choice
// from In, reprompting until it gets a non-negative integer.
type Interactive struct {
	In  io.Reader
	Out io.Writer
}

func (c Interactive) Choose(sheet string, preview [][]string) (int, error) {
	fmt.Fprintf(c.Out, "Sheet %q preview:\n", sheet)
	for i, row := range preview {
		fmt.Fprintf(c.Out, "  %d: %s\n", i+1, strings.Join(row, " | "))
	}

	sc := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, "Header row (1-based, 0 for none): ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, fmt.Errorf("read header choice: %w", err)
			}
			return 0, fmt.Errorf("read header choice: %w", io.ErrUnexpectedEOF)
		}
		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(c.Out, "enter a non-negative integer")
	}
}
