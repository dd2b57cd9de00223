package parser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// KindTable is the registry name of TableParser.
const KindTable = "table"

// TableParser turns each body row of a data table into a record keyed by the column headers.
// Options: "table" selects the table (default first "table").
type TableParser struct {
	tableSelector string
}

var _ ports.Parser = (*TableParser)(nil)

// NewTableParser reads the table selector from cfg options.
func NewTableParser(cfg domain.ParserConfig) *TableParser {
	sel := cfg.Options["table"]
	if sel == "" {
		sel = "table"
	}
	return &TableParser{tableSelector: sel}
}

// Parse returns one record per data row; a page without the table yields no records.
func (p *TableParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	table := doc.Find(p.tableSelector).First()
	if table.Length() == 0 {
		return nil, nil
	}

	rows := table.Find("tr")
	var headers []string
	table.Find("thead tr th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, fieldName(th.Text()))
	})

	bodyStart := 0
	if len(headers) == 0 {
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, fieldName(cell.Text()))
		})
		bodyStart = 1
	}

	var records []domain.Record
	rows.Each(func(i int, tr *goquery.Selection) {
		if i < bodyStart || tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		var rec domain.Record
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			if j >= len(headers) || headers[j] == "" {
				return
			}
			setIfPresent(&rec, headers[j], normalizeText(td.Text()))
		})
		if rec.Len() > 0 {
			records = append(records, rec)
		}
	})
	return records, nil
}

// fieldName snake_cases a header: "% who are foo" becomes "who_are_foo".
func fieldName(header string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(normalizeText(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
