package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/veda-group/leadgen-cli/internal/model"
)

// WriteXLSX writes leads to an XLSX workbook at path, one sheet named
// "Leads" with the same columns and row shape as the CSV export.
func WriteXLSX(leads []model.Lead, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().Value = col
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		for _, field := range Row(lead) {
			row.AddCell().Value = field
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save xlsx %s", path)
	}
	return nil
}
