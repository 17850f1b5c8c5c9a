package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"agridata-labs/soil-scout/internal/models"
)

// ParseTable extracts the table matching selector from an HTML fragment.
// The first row (thead th, or the first tr when there is no thead) becomes
// the header row; everything after it becomes data rows.
func ParseTable(html, selector string) (models.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Table{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return models.Table{}, fmt.Errorf("%w: no element matches '%s'", ErrParse, selector)
	}
	// The selector may match the table itself or a wrapper around it.
	table := sel
	if !sel.Is("table") {
		table = sel.Find("table").First()
		if table.Length() == 0 {
			return models.Table{}, fmt.Errorf("%w: no table under '%s'", ErrParse, selector)
		}
	}

	var out models.Table
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if out.Headers == nil {
			out.Headers = cells
			return
		}
		out.Rows = append(out.Rows, cells)
	})

	if out.Headers == nil {
		return models.Table{}, fmt.Errorf("%w: table '%s' has no rows", ErrParse, selector)
	}
	return out, nil
}
