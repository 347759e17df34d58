package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// serializeTable renders one table row by row, cells joined by " | ", header
// rows first. The result is appended to the body text as a distinct block so
// tabular data survives flattening.
func serializeTable(table *goquery.Selection) string {
	var rows []string

	appendRow := func(tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := cleanCell(cell.Text())
			if text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}

	thead := table.Find("thead").First()
	thead.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		appendRow(tr)
	})

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Header rows were already emitted.
		if thead.Length() > 0 && tr.Closest("thead").Length() > 0 {
			return
		}
		appendRow(tr)
	})

	return strings.Join(rows, "\n")
}

func cleanCell(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
