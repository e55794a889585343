package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
)

const defaultBatchMaxRows = 500

var _ ports.BatchPredictor = (*BatchUseCase)(nil)

type BatchUseCase struct {
	predictor ports.IncomePredictor
	reader    ports.WorkbookReader
	maxRows   int
}

func NewBatchUseCase(predictor ports.IncomePredictor, reader ports.WorkbookReader, maxRows int) *BatchUseCase {
	if maxRows <= 0 {
		maxRows = defaultBatchMaxRows
	}
	return &BatchUseCase{
		predictor: predictor,
		reader:    reader,
		maxRows:   maxRows,
	}
}

// PredictWorkbook runs every data row independently. Row-level input and
// vocabulary errors are reported in the result; only unavailability or
// cancellation aborts the whole batch.
func (uc *BatchUseCase) PredictWorkbook(ctx context.Context, body io.Reader) (*domain.BatchResult, error) {
	rows, err := uc.reader.ReadRows(ctx, body, uc.maxRows)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchResult{Rows: make([]domain.BatchRowResult, 0, len(rows))}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rowResult := domain.BatchRowResult{Row: row.Number}
		prediction, err := uc.predictRow(ctx, row)
		if err != nil {
			if domain.IsKind(err, domain.ErrTemporary) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			rowResult.Error = err.Error()
			if unknown, ok := domain.AsUnknownCategory(err); ok {
				rowResult.Column = unknown.Column
				rowResult.Value = unknown.Value
			}
			result.Failed++
		} else {
			rowResult.Prediction = prediction
			result.Succeeded++
		}
		result.Rows = append(result.Rows, rowResult)
	}
	return result, nil
}

func (uc *BatchUseCase) predictRow(ctx context.Context, row domain.SheetRow) (*domain.Prediction, error) {
	in, err := InputsFromCells(row.Cells)
	if err != nil {
		return nil, err
	}
	return uc.predictor.Run(ctx, in)
}

// headerAliases maps compacted header names (lowercase, letters and digits
// only) to record columns. Form labels such as "Work_Class" or "Job Role" are
// accepted alongside the column names.
var headerAliases = map[string]domain.Column{
	"age":            domain.ColumnAge,
	"workclass":      domain.ColumnWorkclass,
	"education":      domain.ColumnEducation,
	"educationlevel": domain.ColumnEducation,
	"maritalstatus":  domain.ColumnMaritalStatus,
	"occupation":     domain.ColumnOccupation,
	"jobrole":        domain.ColumnOccupation,
	"relationship":   domain.ColumnRelationship,
	"race":           domain.ColumnRace,
	"gender":         domain.ColumnGender,
	"hoursperweek":   domain.ColumnHoursPerWeek,
	"nativecountry":  domain.ColumnNativeCountry,
}

// InputsFromCells maps loosely named cells (e.g. "Marital Status",
// "marital_status", "marital-status") onto user inputs. Two headers naming the
// same column are rejected; unrecognized headers are ignored.
func InputsFromCells(cells map[string]string) (domain.UserInputs, error) {
	normalized := make(map[domain.Column]string, len(cells))
	source := make(map[domain.Column]string, len(cells))
	for k, v := range cells {
		col, ok := headerAliases[headerKey(k)]
		if !ok {
			continue
		}
		if prev, dup := source[col]; dup {
			first, second := prev, k
			if second < first {
				first, second = second, first
			}
			return domain.UserInputs{}, domain.WrapError(domain.ErrInvalidInput, "read row",
				fmt.Errorf("headers %q and %q both name column %s", first, second, col))
		}
		source[col] = k
		normalized[col] = strings.TrimSpace(v)
	}

	age, err := parseWholeNumber(domain.ColumnAge, normalized[domain.ColumnAge])
	if err != nil {
		return domain.UserInputs{}, err
	}
	hours, err := parseWholeNumber(domain.ColumnHoursPerWeek, normalized[domain.ColumnHoursPerWeek])
	if err != nil {
		return domain.UserInputs{}, err
	}

	return domain.UserInputs{
		Age:           age,
		Workclass:     normalized[domain.ColumnWorkclass],
		Education:     normalized[domain.ColumnEducation],
		MaritalStatus: normalized[domain.ColumnMaritalStatus],
		Occupation:    normalized[domain.ColumnOccupation],
		Relationship:  normalized[domain.ColumnRelationship],
		Race:          normalized[domain.ColumnRace],
		Gender:        normalized[domain.ColumnGender],
		HoursPerWeek:  hours,
		NativeCountry: normalized[domain.ColumnNativeCountry],
	}, nil
}

func headerKey(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseWholeNumber(col domain.Column, raw string) (int, error) {
	if raw == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "read row", fmt.Errorf("%s is required", col))
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "read row", fmt.Errorf("%s must be a whole number, got %q", col, raw))
	}
	return int(f), nil
}
