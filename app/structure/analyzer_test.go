package structure

import (
	"fmt"
	"strings"
	"testing"

	"contactimport/app/interfaces"
)

func gridFrom(rows [][]string) *interfaces.Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	grid := &interfaces.Grid{
		Header:    make([]string, width),
		Rows:      make([][]string, len(rows)),
		RawWidths: make([]int, len(rows)),
	}
	for i, row := range rows {
		grid.RawWidths[i] = len(row)
		padded := make([]string, width)
		copy(padded, row)
		grid.Rows[i] = padded
	}
	return grid
}

func TestAnalyzeCleanGrid(t *testing.T) {
	grid := gridFrom([][]string{
		{"Alice", "alice@example.com", "555-0001"},
		{"Bob", "bob@example.com", "555-0002"},
	})

	analysis := Analyze(grid)

	if analysis.OverallQuality != interfaces.QualityGood {
		t.Errorf("Expected good quality, got %s", analysis.OverallQuality)
	}
	if len(analysis.Issues) != 0 {
		t.Errorf("Expected no issues, got %v", analysis.Issues)
	}
	if analysis.RowCount != 2 || analysis.ColumnCount != 3 {
		t.Errorf("Unexpected counts: rows=%d cols=%d", analysis.RowCount, analysis.ColumnCount)
	}
}

func TestAnalyzeWidthMismatch(t *testing.T) {
	grid := gridFrom([][]string{
		{"Alice", "alice@example.com", "555-0001"},
		{"Bob", "bob@example.com"},
		{"Carol", "carol@example.com", "555-0003"},
		{"Dave", "dave@example.com", "555-0004"},
	})

	analysis := Analyze(grid)

	warnings := 0
	for _, issue := range analysis.Issues {
		if issue.Severity == interfaces.SeverityWarning {
			warnings++
			if issue.RowIndex != 1 {
				t.Errorf("Warning on wrong row: %d", issue.RowIndex)
			}
		}
	}
	if warnings != 1 {
		t.Errorf("Expected 1 width warning, got %d", warnings)
	}
	// 1 of 4 rows warned: under the poor threshold, so fair.
	if analysis.OverallQuality != interfaces.QualityFair {
		t.Errorf("Expected fair quality, got %s", analysis.OverallQuality)
	}
}

func TestAnalyzeEncodingArtifacts(t *testing.T) {
	tests := []struct {
		name string
		cell string
	}{
		{"invalid utf8", string([]byte{0xff, 0xfe, 'a'})},
		{"replacement character", "Jos�"},
		{"control character", "Ali\x00ce"},
		{"mojibake", "JosÃ©"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := gridFrom([][]string{
				{tt.cell, "x"},
				{"clean", "y"},
				{"clean", "z"},
			})
			analysis := Analyze(grid)

			found := false
			for _, issue := range analysis.Issues {
				if issue.Severity == interfaces.SeverityError && issue.RowIndex == 0 {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected an error issue on row 0 for %q", tt.cell)
			}
			// Any error row makes the file poor.
			if analysis.OverallQuality != interfaces.QualityPoor {
				t.Errorf("Expected poor quality, got %s", analysis.OverallQuality)
			}
		})
	}
}

func TestAnalyzeTabIsNotControlCharacter(t *testing.T) {
	grid := gridFrom([][]string{
		{"notes\twith tab", "x"},
	})
	analysis := Analyze(grid)
	if analysis.OverallQuality != interfaces.QualityGood {
		t.Errorf("Tab should be allowed, got quality %s with %v", analysis.OverallQuality, analysis.Issues)
	}
}

func TestAnalyzeEmptyRowRatio(t *testing.T) {
	// 3 of 10 rows empty: above the 20% threshold, one file-level warning.
	var rows [][]string
	for i := 0; i < 7; i++ {
		rows = append(rows, []string{"name", "email"})
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, []string{"", ""})
	}
	grid := gridFrom(rows)

	analysis := Analyze(grid)

	fileLevel := 0
	for _, issue := range analysis.Issues {
		if issue.RowIndex == -1 {
			fileLevel++
			if issue.Severity != interfaces.SeverityWarning {
				t.Errorf("Expected warning severity, got %s", issue.Severity)
			}
			if !strings.Contains(issue.Message, "3 of 10") {
				t.Errorf("Unexpected message: %q", issue.Message)
			}
		}
	}
	if fileLevel != 1 {
		t.Errorf("Expected exactly 1 file-level issue, got %d", fileLevel)
	}
	// Empty rows carry no per-row issues, so quality stays good.
	if analysis.OverallQuality != interfaces.QualityGood {
		t.Errorf("Expected good quality, got %s", analysis.OverallQuality)
	}
}

func TestAnalyzeCorruptedThreshold(t *testing.T) {
	// 6 of 10 rows carry errors: over half, so corrupted.
	var rows [][]string
	for i := 0; i < 6; i++ {
		rows = append(rows, []string{"bad\x01cell", "x"})
	}
	for i := 0; i < 4; i++ {
		rows = append(rows, []string{"clean", "y"})
	}
	analysis := Analyze(gridFrom(rows))

	if analysis.OverallQuality != interfaces.QualityCorrupted {
		t.Errorf("Expected corrupted quality, got %s", analysis.OverallQuality)
	}
}

func TestAnalyzeLargeFileWithFewBadRows(t *testing.T) {
	// 10,000 rows with 5% carrying encoding damage: errors exist, so the
	// file is poor, but 5% is nowhere near the corrupted majority.
	var rows [][]string
	for i := 0; i < 10000; i++ {
		if i%20 == 0 {
			rows = append(rows, []string{"Ali\x01ce", "alice@example.com"})
		} else {
			rows = append(rows, []string{"Alice", "alice@example.com"})
		}
	}
	analysis := Analyze(gridFrom(rows))

	if analysis.OverallQuality == interfaces.QualityCorrupted {
		t.Error("5% bad rows must not classify the file corrupted")
	}
	if analysis.OverallQuality != interfaces.QualityPoor {
		t.Errorf("Expected poor quality, got %s", analysis.OverallQuality)
	}
}

func TestModalColumnCountPrefersWider(t *testing.T) {
	grid := gridFrom([][]string{
		{"a", "b", "c"},
		{"a", "b"},
		{"a", "b", "c"},
		{"a", "b"},
	})
	if got := modalColumnCount(grid); got != 3 {
		t.Errorf("Expected modal width 3 on tie, got %d", got)
	}
}

func TestClassifyQualityLadder(t *testing.T) {
	tests := []struct {
		total, errors, warnings int
		expected                interfaces.Quality
	}{
		{10, 0, 0, interfaces.QualityGood},
		{10, 0, 1, interfaces.QualityFair},
		{10, 0, 4, interfaces.QualityPoor},
		{10, 1, 0, interfaces.QualityPoor},
		{10, 6, 0, interfaces.QualityCorrupted},
		{10, 5, 0, interfaces.QualityPoor}, // exactly half is not "more than half"
		{0, 0, 0, interfaces.QualityGood},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%d-%d-%d", tt.total, tt.errors, tt.warnings)
		t.Run(name, func(t *testing.T) {
			if got := classifyQuality(tt.total, tt.errors, tt.warnings); got != tt.expected {
				t.Errorf("classifyQuality(%d,%d,%d) = %s, want %s",
					tt.total, tt.errors, tt.warnings, got, tt.expected)
			}
		})
	}
}
