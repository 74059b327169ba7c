package fileloader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

// CSV decoding for the import pipeline. encoding/csv gives us a proper
// quoted-field-aware tokenizer: quoted commas and embedded newlines survive,
// and unbalanced quotes fail parsing instead of silently producing garbage.

// utf8BOM is stripped from the start of CSV input before decoding. Exports
// from Excel on Windows routinely carry it.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// readCSVRows decodes CSV bytes into raw rows. FieldsPerRecord is disabled
// so ragged rows survive parsing; the structural analyzer flags them as
// warnings instead of the parser rejecting the file.
func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Reason: "malformed CSV", Err: err}
		}
		rows = append(rows, record)
	}

	return rows, nil
}
