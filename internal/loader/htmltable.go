package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"icsv/internal/table"
)

// HTMLTable loads the first <table> element of an HTML document. The first
// row becomes the header whether it is marked up with <th> or not; cell text
// is whitespace-trimmed because HTML indentation is markup, not data.
type HTMLTable struct{}

func (l *HTMLTable) Load(path string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return table.Table{}, fmt.Errorf("parse html: %w", err)
	}

	node := doc.Find("table").First()
	if node.Length() == 0 {
		return table.Table{}, fmt.Errorf("%w: no <table> in document", ErrInputAccess)
	}

	var grid [][]string
	node.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			grid = append(grid, cells)
		}
	})
	if len(grid) == 0 {
		return table.Table{}, fmt.Errorf("%w: table has no rows", ErrInputAccess)
	}

	tbl := table.Table{Header: grid[0], Rows: grid[1:]}
	tbl.Normalize()
	return tbl, nil
}
