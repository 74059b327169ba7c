package structure

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"contactimport/app/interfaces"
)

// Package structure assesses how well-formed a parsed grid is: row-width
// consistency, empty-row ratio, and encoding artifacts. The result is
// advisory; processing continues regardless of quality, the classification
// only informs the user-facing summary.

// emptyRowWarningRatio is the fraction of entirely-empty rows above which a
// file-level warning is emitted.
const emptyRowWarningRatio = 0.20

// Quality ladder thresholds over the fraction of rows carrying issues.
const (
	corruptedErrorRatio = 0.50
	poorWarningRatio    = 0.30
)

// Analyze computes the structural analysis for a grid.
//
// Per row: a cell count deviating from the modal column count flags a
// warning; cells containing control characters or mojibake patterns flag an
// error. Entirely empty rows are counted and, above emptyRowWarningRatio of
// total rows, flag a file-level warning.
//
// Quality classification: corrupted when more than half the rows carry an
// error; poor when any error exists or more than 30% of rows carry a
// warning; fair when warnings exist but no errors; good otherwise.
func Analyze(grid *interfaces.Grid) *interfaces.StructuralAnalysis {
	analysis := &interfaces.StructuralAnalysis{
		ColumnCount: grid.ColumnCount(),
		RowCount:    grid.RowCount(),
		Issues:      []interfaces.ImportIssue{},
	}

	if grid.RowCount() == 0 {
		analysis.OverallQuality = interfaces.QualityGood
		return analysis
	}

	modalWidth := modalColumnCount(grid)

	emptyRows := 0
	errorRows := 0
	warningRows := 0

	for i, row := range grid.Rows {
		rowHasError := false
		rowHasWarning := false

		if isEmptyRow(row) {
			emptyRows++
			continue
		}

		width := modalWidth
		if i < len(grid.RawWidths) {
			width = grid.RawWidths[i]
		}
		if width != modalWidth {
			analysis.Issues = append(analysis.Issues, interfaces.ImportIssue{
				RowIndex: i,
				Severity: interfaces.SeverityWarning,
				Message: fmt.Sprintf("row width mismatch: %d cells, expected %d",
					width, modalWidth),
			})
			rowHasWarning = true
		}

		for _, cell := range row {
			if reason, bad := encodingArtifact(cell); bad {
				analysis.Issues = append(analysis.Issues, interfaces.ImportIssue{
					RowIndex: i,
					Severity: interfaces.SeverityError,
					Message:  "encoding issue: " + reason,
				})
				rowHasError = true
				break
			}
		}

		if rowHasError {
			errorRows++
		} else if rowHasWarning {
			warningRows++
		}
	}

	total := grid.RowCount()
	if float64(emptyRows) > emptyRowWarningRatio*float64(total) {
		analysis.Issues = append(analysis.Issues, interfaces.ImportIssue{
			RowIndex: -1,
			Severity: interfaces.SeverityWarning,
			Message: fmt.Sprintf("%d of %d rows are empty (more than %.0f%%)",
				emptyRows, total, emptyRowWarningRatio*100),
		})
	}

	analysis.OverallQuality = classifyQuality(total, errorRows, warningRows)
	return analysis
}

// classifyQuality applies the quality ladder over per-row issue counts.
func classifyQuality(total, errorRows, warningRows int) interfaces.Quality {
	if total == 0 {
		return interfaces.QualityGood
	}

	errorRatio := float64(errorRows) / float64(total)
	warningRatio := float64(warningRows) / float64(total)

	switch {
	case errorRatio > corruptedErrorRatio:
		return interfaces.QualityCorrupted
	case errorRows > 0 || warningRatio > poorWarningRatio:
		return interfaces.QualityPoor
	case warningRows > 0:
		return interfaces.QualityFair
	default:
		return interfaces.QualityGood
	}
}

// modalColumnCount returns the most common raw row width in the grid. Ties
// prefer the wider count so a file with half-padded rows is measured against
// its fuller shape.
func modalColumnCount(grid *interfaces.Grid) int {
	counts := make(map[int]int)
	for _, w := range grid.RawWidths {
		counts[w]++
	}
	if len(counts) == 0 {
		return grid.ColumnCount()
	}

	widths := make([]int, 0, len(counts))
	for w := range counts {
		widths = append(widths, w)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(widths)))

	best := widths[0]
	for _, w := range widths {
		if counts[w] > counts[best] {
			best = w
		}
	}
	return best
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// encodingArtifact checks one cell for control characters and common
// mojibake patterns (UTF-8 decoded as Latin-1, replacement characters,
// invalid UTF-8).
func encodingArtifact(cell string) (string, bool) {
	if !utf8.ValidString(cell) {
		return "invalid UTF-8 sequence", true
	}
	if strings.ContainsRune(cell, utf8.RuneError) {
		return "replacement character present", true
	}
	for _, r := range cell {
		if r < 0x20 && r != '\t' {
			return fmt.Sprintf("control character U+%04X", r), true
		}
	}
	// "Ã" followed by a Latin-1 supplement rune is the classic signature of
	// UTF-8 text decoded as Latin-1 (e.g. "JosÃ©").
	runes := []rune(cell)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == 'Ã' && runes[i+1] >= 0x80 && runes[i+1] <= 0xFF {
			return "mojibake pattern (UTF-8 decoded as Latin-1)", true
		}
	}
	return "", false
}
