package snd

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlTable extracts the first data table of an HTML export. Header cells
// come from th elements, or from the first row when the table has none.
func htmlTable(content string) ([]string, [][]string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil
	}
	var header []string
	var rows [][]string

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, nil
	}

	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if header == nil {
			header = cells
			return
		}
		rows = append(rows, cells)
	})
	if len(header) < 2 {
		return nil, nil
	}
	return header, rows
}
