// Package export writes ranked allocations to spreadsheet files.
package export

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/papapumpkin/acreage/internal/allocation"
)

// SheetName is the worksheet holding the ranked table.
const SheetName = "Ranking"

// ErrNoPath is returned when WriteXLSX is called without a destination.
var ErrNoPath = errors.New("export: no output path")

// WriteXLSX writes ranked to a new workbook at path. The first row holds the
// column headers and each following row one solution in rank order. title is
// stored in the workbook properties.
func WriteXLSX(path, title string, ranked []allocation.Solution) (err error) {
	if path == "" {
		return ErrNoPath
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "acreage"}); err != nil {
		return fmt.Errorf("export: set properties: %w", err)
	}

	header := []any{"Rank", "Crop 1", "Crop 2", "Acres 1", "Acres 2", "Harvests 1", "Harvests 2", "Total profit"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("export: apply header style: %w", err)
	}

	for i, s := range ranked {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{i + 1, s.Crop1, s.Crop2, s.Acres1, s.Acres2, s.Harvests1, s.Harvests2, s.TotalProfit}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "C", 16); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "H", "H", 16); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
