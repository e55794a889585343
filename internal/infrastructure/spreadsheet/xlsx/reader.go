// Package xlsx reads prediction batches from Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadRows returns the data rows of the first sheet keyed by the header row.
// Blank rows are skipped; row numbers are the 1-based sheet row.
func (r *Reader) ReadRows(ctx context.Context, body io.Reader, maxRows int) ([]domain.SheetRow, error) {
	f, err := excelize.OpenReader(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", errors.New("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read sheet", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read sheet", errors.New("sheet is empty"))
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]domain.SheetRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if blank(cells) {
			continue
		}
		if maxRows > 0 && len(out) >= maxRows {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read sheet", fmt.Errorf("workbook has more than %d data rows", maxRows))
		}

		row := domain.SheetRow{Number: i + 2, Cells: make(map[string]string, len(header))}
		for col, value := range cells {
			if col >= len(header) || header[col] == "" {
				continue
			}
			row.Cells[header[col]] = value
		}
		out = append(out, row)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
