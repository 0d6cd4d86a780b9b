package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// rankingsSheet is the sheet name used in exported workbooks.
const rankingsSheet = "Rankings"

// writeExcel writes headers and records to an xlsx workbook with a single
// Rankings sheet.
func writeExcel(path string, headers []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rankingsSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(rankingsSheet, cell, &row)
	}

	if err := writeRow(1, headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, record := range records {
		if err := writeRow(i+2, record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
