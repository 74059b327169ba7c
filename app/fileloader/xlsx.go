package fileloader

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// XLSX decoding for the import pipeline. Only the first sheet is extracted;
// multi-sheet workbooks beyond flat tabular extraction are out of scope.

// readXLSXRows decodes XLSX bytes into raw rows from the first sheet.
func readXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Reason: "undecodable spreadsheet binary", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Reason: "no sheets found in workbook"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Reason: "failed to read sheet rows", Err: err}
	}

	return rows, nil
}
