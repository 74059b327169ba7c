package fileloader

import (
	"strings"
	"unicode"
)

// headerSampleRows is how many data rows the header heuristic samples when
// comparing the first row's shape against typical data rows.
const headerSampleRows = 10

// excelColumnName converts a 0-based index to Excel-style column name.
// Examples: 0 -> A, 1 -> B, 25 -> Z, 26 -> AA, 27 -> AB
func excelColumnName(index int) string {
	result := ""
	index++ // Convert to 1-based for the algorithm

	for index > 0 {
		index-- // Adjust for 0-based letter indexing
		result = string(rune('A'+index%26)) + result
		index /= 26
	}

	return result
}

// NormalizeHeaders replaces empty headers with Excel-style column names
// prefixed with Unnamed_ (Unnamed_A, Unnamed_B, ...). This keeps column
// naming consistent regardless of source format.
//
// Example:
//
//	Input:  ["name", "", "phone", "  "]
//	Output: ["name", "Unnamed_A", "phone", "Unnamed_B"]
func NormalizeHeaders(header []string) []string {
	normalized := make([]string, len(header))
	emptyCount := 0

	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			normalized[i] = "Unnamed_" + excelColumnName(emptyCount)
			emptyCount++
		} else {
			normalized[i] = strings.TrimSpace(h)
		}
	}

	return normalized
}

// SyntheticHeaders generates placeholder headers for files with no header row.
func SyntheticHeaders(columnCount int) []string {
	return NormalizeHeaders(make([]string, columnCount))
}

// IsSyntheticHeader reports whether header is a placeholder produced by
// NormalizeHeaders or SyntheticHeaders for an empty header cell. Placeholders
// carry no information about the column's content, so downstream consumers
// must not treat them as user-supplied names.
func IsSyntheticHeader(header string) bool {
	rest, ok := strings.CutPrefix(header, "Unnamed_")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// DetectHeaderRow decides whether the first row of a file is a header row.
//
// Heuristic: the first row is a header when it has no empty cells AND its
// proportion of alphabetic tokens is higher than that of the typical data
// row, sampled from the next headerSampleRows rows. A file with a single row
// is assumed to be data. Callers can override the decision via
// Options.HeaderMode.
func DetectHeaderRow(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}

	first := rows[0]
	if len(first) == 0 {
		return false
	}
	for _, cell := range first {
		if strings.TrimSpace(cell) == "" {
			return false
		}
	}

	if len(rows) == 1 {
		return false
	}

	sample := rows[1:]
	if len(sample) > headerSampleRows {
		sample = sample[:headerSampleRows]
	}

	dataScore := 0.0
	for _, row := range sample {
		dataScore += alphabeticRatio(row)
	}
	dataScore /= float64(len(sample))

	return alphabeticRatio(first) > dataScore
}

// alphabeticRatio returns the fraction of cells in a row consisting purely of
// letters, spaces, and common header punctuation (underscore, hyphen).
func alphabeticRatio(row []string) float64 {
	if len(row) == 0 {
		return 0
	}

	alpha := 0
	for _, cell := range row {
		if isAlphabeticToken(strings.TrimSpace(cell)) {
			alpha++
		}
	}
	return float64(alpha) / float64(len(row))
}

func isAlphabeticToken(s string) bool {
	if s == "" {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '_' || r == '-' || r == '.':
			// allowed header separators
		default:
			return false
		}
	}
	return hasLetter
}
