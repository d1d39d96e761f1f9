// Package export renders the inbox as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"portfolio-cms/backend/internal/inbox/domain"
)

// SheetName is the worksheet holding the messages.
const SheetName = "Contact Messages"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	maxColumnWidth = 50
	paperA4        = 9
	dateLayout     = "2006-01-02 15:04:05"
)

var headers = []string{"Date", "Name", "Email", "Phone", "Reason", "Message", "Status"}

// Filename returns the download name for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("contact_messages_%s.xlsx", t.Format("20060102"))
}

// WriteXLSX writes msgs, in the given order, as an A4 landscape workbook with a bold centred
// header row and column widths fitted to content up to 50 characters.
func WriteXLSX(w io.Writer, msgs []*domain.Message) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	size, orientation, fit := paperA4, "landscape", 1
	if err := f.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fit,
	}); err != nil {
		return err
	}

	widths := make([]int, len(headers))
	rows := make([][]string, 0, len(msgs)+1)
	rows = append(rows, headers)
	for _, m := range msgs {
		rows = append(rows, []string{
			m.CreatedAt.Format(dateLayout), m.Name, m.Email, m.Phone, m.Reason, m.Message, string(m.Status),
		})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
			if n := utf8.RuneCountInString(v); n > widths[j] {
				widths[j] = n
			}
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return err
	}

	for j, n := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(min(n+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return f.Write(w)
}
