package table

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"coopdash/internal/util"
)

// POS exports saved as .xls are often an HTML table.
func looksLikeHTML(content []byte) bool {
	return bytes.Contains(bytes.ToLower(content), []byte("<table"))
}

func readHTML(content []byte) ([]sheet, error) {
	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}

	out := []sheet{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			out = append(out, sheet{name: "table" + strconv.Itoa(i+1), rows: rows})
		}
	})
	if len(out) == 0 {
		return nil, eris.New("html: no table rows")
	}
	return out, nil
}
