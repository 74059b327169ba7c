package fileloader

import (
	"os"
	"path/filepath"

	"contactimport/app/interfaces"
)

// Parse decodes raw input bytes into a Grid. The declared format wins when
// concrete; FormatAuto sniffs the content. Compressed inputs are expanded
// transparently. Fatal decode problems (unbalanced quotes, undecodable
// binary for the declared format) return *ParseError; oversized inputs
// return *FileTooLargeError.
func Parse(data []byte, declared Format, opts Options) (*interfaces.Grid, error) {
	limit := opts.maxBytes()
	if int64(len(data)) > limit {
		return nil, &FileTooLargeError{Size: int64(len(data)), Limit: limit}
	}
	if len(data) == 0 {
		return nil, &ParseError{Format: declared, Reason: "input is empty"}
	}

	if ct := DetectCompression(data); ct != CompressionNone {
		expanded, err := Decompress(data, ct, limit)
		if err != nil {
			return nil, err
		}
		data = expanded
	}

	format := ResolveFormat(declared, data)

	var rows [][]string
	var err error
	switch format {
	case FormatCSV:
		rows, err = readCSVRows(data)
	case FormatXLSX:
		rows, err = readXLSXRows(data)
	case FormatJSON:
		return parseJSONGrid(data, opts)
	default:
		return nil, &ParseError{Format: format, Reason: "unsupported format"}
	}
	if err != nil {
		return nil, err
	}

	return buildGrid(rows, opts), nil
}

// ParseFile reads a file from disk and parses it, detecting the format from
// the file name. Used by the CLI driver; transport layers that already hold
// the bytes call Parse directly.
func ParseFile(path string, opts Options) (*interfaces.Grid, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > opts.maxBytes() {
		return nil, &FileTooLargeError{Size: info.Size(), Limit: opts.maxBytes()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data, DetectFormat(filepath.Base(path)), opts)
}

// buildGrid assembles raw rows into a Grid: header detection, header
// normalization, and padding/truncating every data row to the detected
// column count. Entirely empty tabular input yields an empty grid rather
// than an error; the structural analyzer reports on it.
func buildGrid(rows [][]string, opts Options) *interfaces.Grid {
	hasHeader := false
	switch opts.HeaderMode {
	case HeaderForce:
		hasHeader = len(rows) > 0
	case HeaderNone:
		hasHeader = false
	default:
		hasHeader = DetectHeaderRow(rows)
	}

	var header []string
	var dataRows [][]string
	if hasHeader {
		header = NormalizeHeaders(rows[0])
		dataRows = rows[1:]
	} else {
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		header = SyntheticHeaders(width)
		dataRows = rows
	}

	grid := &interfaces.Grid{
		Header:       header,
		Rows:         make([][]string, len(dataRows)),
		RawWidths:    make([]int, len(dataRows)),
		HasHeaderRow: hasHeader,
	}

	width := len(header)
	for i, row := range dataRows {
		grid.RawWidths[i] = len(row)
		padded := make([]string, width)
		copy(padded, row)
		grid.Rows[i] = padded
	}

	return grid
}
