package summary

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/spendview/internal/model"
)

const (
	SheetSummary   = "Summary"
	SheetBreakdown = "Breakdown"

	// Built-in excelize number format "0.00".
	numFmtTwoPlaces = 2
)

// WriteXLSX writes a workbook with the summary table, the per-transaction
// breakdown and, when there is data, a pie chart over the breakdown.
func WriteXLSX(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetBreakdown); err != nil {
		return fmt.Errorf("creating breakdown sheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoPlaces})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	if err := writeSummarySheet(f, s, money); err != nil {
		return err
	}
	if err := writeBreakdownSheet(f, s, money); err != nil {
		return err
	}

	if !s.Empty() {
		last := len(s.Slices) + 1
		chart := &excelize.Chart{
			Type: excelize.Pie,
			Series: []excelize.ChartSeries{{
				Name:       "Spend",
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetBreakdown, last),
				Values:     fmt.Sprintf("%s!$E$2:$E$%d", SheetBreakdown, last),
			}},
			Title: []excelize.RichTextRun{{Text: "Individual Credit Transactions"}},
		}
		if err := f.AddChart(SheetSummary, "D2", chart); err != nil {
			return fmt.Errorf("adding chart: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s Summary, money int) error {
	rows := [][]any{{"Key", "Value"}}
	for _, r := range s.Table {
		rows = append(rows, []any{r.Key, r.Value.InexactFloat64()})
	}
	if err := setRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B2", fmt.Sprintf("B%d", len(rows)), money); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return nil
}

func writeBreakdownSheet(f *excelize.File, s Summary, money int) error {
	rows := [][]any{{"Label", "Name", "Date", "Source", "Amount"}}
	for _, sl := range s.Slices {
		rows = append(rows, []any{sl.Label, sl.Name, sl.Date.Format(model.DateFormat), sl.Source, sl.Value.InexactFloat64()})
	}
	if err := setRows(f, SheetBreakdown, rows); err != nil {
		return err
	}
	if len(rows) > 1 {
		if err := f.SetCellStyle(SheetBreakdown, "E2", fmt.Sprintf("E%d", len(rows)), money); err != nil {
			return fmt.Errorf("styling breakdown: %w", err)
		}
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
