// Package importer reads wishlist items from spreadsheets.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

// Summary counts what happened to the data rows of a sheet.
type Summary struct {
	Rows    int
	Valid   int
	Skipped []SkippedRow
}

type SkippedRow struct {
	Row    int // 1-based, as shown in the spreadsheet
	Reason string
}

// Header names, matched case-insensitively. title and price are required.
const (
	colTitle     = "title"
	colURL       = "url"
	colPrice     = "price"
	colImageURL  = "image_url"
	colGroupGift = "group_gift"
)

// ReadItems parses the first sheet of an XLSX workbook. The first row is a
// header naming the columns; rows that fail validation are skipped and
// reported in the summary.
func ReadItems(r io.Reader) ([]service.ItemInput, *Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{colTitle, colPrice} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("missing %q column", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	summary := &Summary{}
	var items []service.ItemInput
	for i, row := range rows[1:] {
		rowNumber := i + 2
		if isBlank(row) {
			continue
		}
		summary.Rows++

		title := cell(row, colTitle)
		if title == "" {
			summary.Skipped = append(summary.Skipped, SkippedRow{rowNumber, "missing title"})
			continue
		}

		price, err := model.ParseMoney(strings.ReplaceAll(cell(row, colPrice), ",", ""))
		if err != nil || !price.IsPositive() {
			summary.Skipped = append(summary.Skipped, SkippedRow{rowNumber, "price must be a positive amount"})
			continue
		}
		if err := price.Check(); err != nil {
			summary.Skipped = append(summary.Skipped, SkippedRow{rowNumber, err.Error()})
			continue
		}

		items = append(items, service.ItemInput{
			Title:       title,
			URL:         cell(row, colURL),
			Price:       price,
			ImageURL:    cell(row, colImageURL),
			IsGroupGift: parseFlag(cell(row, colGroupGift)),
		})
	}
	summary.Valid = len(items)

	return items, summary, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "x":
		return true
	default:
		return false
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
