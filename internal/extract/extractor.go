// Package extract turns raw registry markup into a normalized field map.
//
// A permit page carries two zones of interest: a "FOLDER DETAILS" block of
// label/value span pairs, and a "PROPERTY DETAILS" table of fixed-width
// address rows. Everything else on the page is chrome.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldMap maps raw page labels (or canonical property column names) to
// their trimmed text values. An empty map means the page had no details
// block at all.
type FieldMap map[string]string

// propertyTableAnchor identifies the PROPERTY DETAILS section. The registry
// markup tags that section's label with a stable "for" attribute; the
// address table is the next table inside the same container.
const propertyTableAnchor = `label[for="d_1376492351078"]`

// addressCellCount is the cardinality of an address row. The property table
// mixes address rows with street-segment rows of other widths; only address
// rows are wanted.
const addressCellCount = 11

// propertyColumns is the positional column-to-field mapping for an address
// row.
var propertyColumns = [addressCellCount]string{
	"property_number",
	"property_pre",
	"property_street",
	"property_streettype",
	"property_dir",
	"property_unit_type",
	"property_unit_number",
	"property_city",
	"property_state",
	"property_zip",
	"property_legal_desc",
}

// Extract parses permit markup and returns the combined field map from both
// zones. A page with no folder-details block yields an empty map and no
// error; only malformed input that goquery cannot parse is an error.
func Extract(markup []byte) (FieldMap, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	fields := FieldMap{}
	if !extractFolderDetails(doc, fields) {
		return fields, nil
	}
	extractPropertyDetails(doc, fields)
	return fields, nil
}

// extractFolderDetails pulls the label/value span pairs from the first
// details group. Returns false when the page has no such group.
func extractFolderDetails(doc *goquery.Document, fields FieldMap) bool {
	group := doc.Find("div.group").First()
	if group.Length() == 0 {
		return false
	}

	spans := group.Find("span")
	// The first span is the section heading, not a label.
	texts := make([]string, 0, spans.Length())
	spans.Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			return
		}
		texts = append(texts, s.Text())
	})

	for i := 0; i+1 < len(texts); i += 2 {
		label := strings.TrimSuffix(strings.TrimSpace(texts[i]), ":")
		if label == "" {
			continue
		}
		fields[label] = strings.TrimSpace(texts[i+1])
	}
	return true
}

// extractPropertyDetails keeps the first address row of the property table.
// A permit may reference several properties; only the primary one is
// retained.
func extractPropertyDetails(doc *goquery.Document, fields FieldMap) {
	anchor := doc.Find(propertyTableAnchor).First()
	if anchor.Length() == 0 {
		return
	}
	table := anchor.Closest("div").Find("table").First()
	if table.Length() == 0 {
		return
	}

	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() != addressCellCount {
			return true
		}
		cells.Each(func(i int, td *goquery.Selection) {
			fields[propertyColumns[i]] = strings.TrimSpace(td.Text())
		})
		return false
	})
}
