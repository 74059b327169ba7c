package fileloader

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseCSVWithHeader(t *testing.T) {
	data := []byte("Full Name,E-mail,Cell\nJohn Doe,john@example.com,555-123-4567\nJane Roe,jane@example.com,555-987-6543\n")

	grid, err := Parse(data, FormatCSV, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !grid.HasHeaderRow {
		t.Error("Expected header row to be detected")
	}
	expectedHeader := []string{"Full Name", "E-mail", "Cell"}
	if !reflect.DeepEqual(grid.Header, expectedHeader) {
		t.Errorf("Expected header %v, got %v", expectedHeader, grid.Header)
	}
	if grid.RowCount() != 2 {
		t.Errorf("Expected 2 data rows, got %d", grid.RowCount())
	}
	if grid.Rows[0][0] != "John Doe" {
		t.Errorf("Expected first cell 'John Doe', got %q", grid.Rows[0][0])
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	// Numeric first row should not be mistaken for a header.
	data := []byte("1,2,3\n4,5,6\n")

	grid, err := Parse(data, FormatCSV, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if grid.HasHeaderRow {
		t.Error("Numeric first row should be treated as data")
	}
	expectedHeader := []string{"Unnamed_A", "Unnamed_B", "Unnamed_C"}
	if !reflect.DeepEqual(grid.Header, expectedHeader) {
		t.Errorf("Expected synthetic headers %v, got %v", expectedHeader, grid.Header)
	}
	if grid.RowCount() != 2 {
		t.Errorf("Expected 2 data rows, got %d", grid.RowCount())
	}
}

func TestParseHeaderModeOverrides(t *testing.T) {
	data := []byte("name,email\nAlice,alice@example.com\n")

	grid, err := Parse(data, FormatCSV, Options{HeaderMode: HeaderNone})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if grid.HasHeaderRow {
		t.Error("HeaderNone should force the first row to be data")
	}
	if grid.RowCount() != 2 {
		t.Errorf("Expected 2 rows with HeaderNone, got %d", grid.RowCount())
	}

	grid, err = Parse([]byte("1,2\n3,4\n"), FormatCSV, Options{HeaderMode: HeaderForce})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !grid.HasHeaderRow {
		t.Error("HeaderForce should treat the first row as a header")
	}
	if grid.RowCount() != 1 {
		t.Errorf("Expected 1 data row with HeaderForce, got %d", grid.RowCount())
	}
}

func TestParseRaggedRowsPadded(t *testing.T) {
	data := []byte("name,email,phone\nAlice,alice@example.com\nBob,bob@example.com,555-0001,extra\n")

	grid, err := Parse(data, FormatCSV, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for i, row := range grid.Rows {
		if len(row) != grid.ColumnCount() {
			t.Errorf("Row %d not padded to column count: len=%d want=%d", i, len(row), grid.ColumnCount())
		}
	}
	// Raw widths preserved for the structural analyzer.
	if !reflect.DeepEqual(grid.RawWidths, []int{2, 4}) {
		t.Errorf("Expected raw widths [2 4], got %v", grid.RawWidths)
	}
}

func TestParseMalformedCSV(t *testing.T) {
	data := []byte("name,email\n\"unterminated,quote@example.com\n")

	_, err := Parse(data, FormatCSV, DefaultOptions())
	if err == nil {
		t.Fatal("Expected parse error for unbalanced quote")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got %T", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(nil, FormatCSV, DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
}

func TestParseFileTooLarge(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 100)

	_, err := Parse(data, FormatCSV, Options{MaxBytes: 50})
	if err == nil {
		t.Fatal("Expected error for oversized input")
	}
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Expected *FileTooLargeError, got %T", err)
	}
	if tooLarge.Limit != 50 {
		t.Errorf("Expected limit 50, got %d", tooLarge.Limit)
	}
}

func TestParseGzipCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("name,email\nAlice,alice@example.com\n")); err != nil {
		t.Fatalf("Failed to write gzip data: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	grid, err := Parse(buf.Bytes(), FormatCSV, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if grid.RowCount() != 1 {
		t.Errorf("Expected 1 data row, got %d", grid.RowCount())
	}
	if grid.Rows[0][0] != "Alice" {
		t.Errorf("Expected 'Alice', got %q", grid.Rows[0][0])
	}
}

func TestParseGzipBomb(t *testing.T) {
	// A small compressed payload expanding past the limit must be rejected.
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(bytes.Repeat([]byte("x,y,z\n"), 10000)); err != nil {
		t.Fatalf("Failed to write gzip data: %v", err)
	}
	zw.Close()

	_, err := Parse(buf.Bytes(), FormatCSV, Options{MaxBytes: 1024})
	if err == nil {
		t.Fatal("Expected error for decompressed data over the limit")
	}
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Expected *FileTooLargeError, got %T", err)
	}
}

func TestParseJSONArray(t *testing.T) {
	data := []byte(`[{"name":"Alice","email":"alice@example.com"},{"name":"Bob","phone":"555-0001"}]`)

	grid, err := Parse(data, FormatAuto, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !grid.HasHeaderRow {
		t.Error("JSON objects always carry field names")
	}
	// Keys are unioned and sorted for a deterministic column order.
	expectedHeader := []string{"email", "name", "phone"}
	if !reflect.DeepEqual(grid.Header, expectedHeader) {
		t.Errorf("Expected header %v, got %v", expectedHeader, grid.Header)
	}
	if grid.RowCount() != 2 {
		t.Errorf("Expected 2 rows, got %d", grid.RowCount())
	}
	if grid.Rows[1][2] != "555-0001" {
		t.Errorf("Expected phone in row 1, got %q", grid.Rows[1][2])
	}
	// Missing keys become empty cells.
	if grid.Rows[0][2] != "" {
		t.Errorf("Expected empty phone for Alice, got %q", grid.Rows[0][2])
	}
}

func TestParseJSONNotAnArray(t *testing.T) {
	_, err := Parse([]byte(`{"name":"Alice"}`), FormatJSON, DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for non-array JSON input")
	}
}

func TestParseBOMStripped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,email\nAlice,alice@example.com\n")...)

	grid, err := Parse(data, FormatCSV, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if grid.Header[0] != "name" {
		t.Errorf("BOM not stripped from first header: %q", grid.Header[0])
	}
}

func TestParseFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "parse_file_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "contacts.csv")
	if err := os.WriteFile(path, []byte("name,email\nAlice,alice@example.com\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	grid, err := ParseFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if grid.RowCount() != 1 {
		t.Errorf("Expected 1 row, got %d", grid.RowCount())
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected Format
	}{
		{"csv", "contacts.csv", FormatCSV},
		{"csv uppercase", "CONTACTS.CSV", FormatCSV},
		{"xlsx", "export.xlsx", FormatXLSX},
		{"json", "dump.json", FormatJSON},
		{"compressed csv", "contacts.csv.gz", FormatCSV},
		{"compressed json", "dump.json.xz", FormatJSON},
		{"unknown extension defaults to csv", "data.bin", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.fileName); got != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.fileName, got, tt.expected)
			}
		})
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"zip magic", []byte{0x50, 0x4b, 0x03, 0x04}, FormatXLSX},
		{"json array", []byte(`  [{"a":1}]`), FormatJSON},
		{"json object", []byte("{\"a\":1}"), FormatJSON},
		{"plain text", []byte("a,b,c\n1,2,3\n"), FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffFormat(tt.data); got != tt.expected {
				t.Errorf("SniffFormat = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	input := []string{"name", "", "phone", "  "}
	expected := []string{"name", "Unnamed_A", "phone", "Unnamed_B"}

	if got := NormalizeHeaders(input); !reflect.DeepEqual(got, expected) {
		t.Errorf("NormalizeHeaders = %v, want %v", got, expected)
	}
}

func TestIsSyntheticHeader(t *testing.T) {
	tests := []struct {
		header   string
		expected bool
	}{
		{"Unnamed_A", true},
		{"Unnamed_Z", true},
		{"Unnamed_AB", true},
		{"Unnamed_", false},
		{"Unnamed_a", false},
		{"Unnamed_1", false},
		{"Unnamed", false},
		{"Full Name", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := IsSyntheticHeader(tt.header); got != tt.expected {
				t.Errorf("IsSyntheticHeader(%q) = %v, want %v", tt.header, got, tt.expected)
			}
		})
	}
}

func TestDetectHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected bool
	}{
		{
			name:     "empty file",
			rows:     nil,
			expected: false,
		},
		{
			name:     "single row is data",
			rows:     [][]string{{"name", "email"}},
			expected: false,
		},
		{
			name: "alphabetic header over mixed data",
			rows: [][]string{
				{"name", "email", "phone"},
				{"Alice", "alice@example.com", "555-0001"},
				{"Bob", "bob@example.com", "555-0002"},
			},
			expected: true,
		},
		{
			name: "empty cell disqualifies header",
			rows: [][]string{
				{"name", "", "phone"},
				{"Alice", "alice@example.com", "555-0001"},
			},
			expected: false,
		},
		{
			name: "all-alphabetic rows look alike",
			rows: [][]string{
				{"Alice", "Portland"},
				{"Bob", "Seattle"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectHeaderRow(tt.rows); got != tt.expected {
				t.Errorf("DetectHeaderRow = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDiscoverFiles(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "discover_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	sub := filepath.Join(tmpDir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.csv"), []byte("x\n"), 0644); err != nil {
		t.Fatalf("Failed to write nested file: %v", err)
	}

	info, err := DiscoverFiles(tmpDir, "**/*.csv")
	if err != nil {
		t.Fatalf("DiscoverFiles failed: %v", err)
	}

	if info.TotalFiles != 3 {
		t.Errorf("Expected 3 files, got %d", info.TotalFiles)
	}
	expected := []string{
		filepath.Join(tmpDir, "a.csv"),
		filepath.Join(tmpDir, "b.csv"),
		filepath.Join(sub, "c.csv"),
	}
	if !reflect.DeepEqual(info.Files, expected) {
		t.Errorf("Expected sorted files %v, got %v", expected, info.Files)
	}
}
