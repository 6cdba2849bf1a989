package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Export"

// WriteXLSX emits rows to a single sheet, header row = mapping order,
// preserved column order (spec.md §4.9 step 7).
func WriteXLSX(w io.Writer, columns []string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	f.SetActiveSheet(f.GetSheetIndex(sheetName))

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}

	for r, row := range rows {
		rowNum := r + 2
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, row[col]); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
