// Package export writes saved products as a marketplace bulk-upload CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Simplici0/listingdesk/internal/library"
)

// Header is the first row of the bulk-upload file.
var Header = []string{
	"Action(SiteID=US|Country=US|Currency=USD|Version=745)",
	"Title",
	"Description",
	"StartPrice",
	"Quantity",
	"ConditionID",
	"PicURL",
}

const (
	maxTitleRunes    = 80
	defaultQuantity  = "5"
	conditionNew     = "1000"
	actionAdd        = "Add"
	filenameDateForm = "2006-01-02"
)

// Filename is the attachment name for an export produced at the given date.
func Filename(date time.Time) string {
	return "ebay_export_" + date.Format(filenameDateForm) + ".csv"
}

// WriteCSV writes the header and one row per product. It returns the number
// of product rows written.
func WriteCSV(w io.Writer, products []library.Product) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for i, p := range products {
		if err := cw.Write(row(p)); err != nil {
			return i, fmt.Errorf("write csv row %q: %w", p.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(products), nil
}

func row(p library.Product) []string {
	var pic string
	if len(p.Images) > 0 {
		pic = p.Images[0]
	}
	return []string{
		actionAdd,
		truncate(p.Title, maxTitleRunes),
		flatten(p.Description),
		p.ListingPrice(),
		defaultQuantity,
		conditionNew,
		pic,
	}
}

// flatten collapses line breaks and runs of whitespace into single spaces.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
