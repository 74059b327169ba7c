package normalize

import (
	"reflect"
	"testing"

	"contactimport/app/interfaces"
	"contactimport/app/mapping"
)

func contactMappings(fields ...string) []interfaces.ColumnMapping {
	mappings := make([]interfaces.ColumnMapping, len(fields))
	for i, f := range fields {
		mappings[i] = interfaces.ColumnMapping{ColumnIndex: i, TargetField: f}
	}
	return mappings
}

func gridOf(rows ...[]string) *interfaces.Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return &interfaces.Grid{Header: make([]string, width), Rows: rows}
}

func TestNormalizeBasicRow(t *testing.T) {
	grid := gridOf([]string{"john doe", " JOHN@EXAMPLE.COM ", " 555-123-4567 "})
	mappings := contactMappings(mapping.FieldName, mapping.FieldEmail, mapping.FieldPhone)

	result := Normalize(grid, mappings)

	if len(result.Contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(result.Contacts))
	}
	c := result.Contacts[0]
	if c.Name != "John Doe" {
		t.Errorf("Expected title-cased name, got %q", c.Name)
	}
	if c.Email != "john@example.com" {
		t.Errorf("Expected lowercased trimmed email, got %q", c.Email)
	}
	if c.Phone != "5551234567" {
		t.Errorf("Expected digits-only phone, got %q", c.Phone)
	}
	if c.RowIndex != 0 {
		t.Errorf("Expected row index 0, got %d", c.RowIndex)
	}
	if result.AutoCorrections == 0 {
		t.Error("Expected auto-corrections to be counted")
	}
}

func TestNormalizeMissingName(t *testing.T) {
	grid := gridOf(
		[]string{"Alice Smith", "alice@example.com"},
		[]string{"", "ghost@example.com"},
		[]string{"Bob Jones", "bob@example.com"},
	)
	mappings := contactMappings(mapping.FieldName, mapping.FieldEmail)

	result := Normalize(grid, mappings)

	if len(result.Contacts) != 2 {
		t.Fatalf("Expected 2 contacts, got %d", len(result.Contacts))
	}
	for _, c := range result.Contacts {
		if c.Name == "" {
			t.Error("Nameless contact leaked into the result")
		}
	}

	// Exactly one error issue for the excluded row, nothing else.
	var errorIssues []interfaces.ImportIssue
	for _, issue := range result.Issues {
		if issue.Severity == interfaces.SeverityError {
			errorIssues = append(errorIssues, issue)
		}
	}
	if len(errorIssues) != 1 {
		t.Fatalf("Expected exactly 1 error issue, got %d", len(errorIssues))
	}
	if errorIssues[0].RowIndex != 1 {
		t.Errorf("Error issue on wrong row: %d", errorIssues[0].RowIndex)
	}
}

func TestNormalizeEmptyRowsSkippedSilently(t *testing.T) {
	grid := gridOf(
		[]string{"Alice Smith", "alice@example.com"},
		[]string{"", ""},
		[]string{"  ", ""},
	)
	mappings := contactMappings(mapping.FieldName, mapping.FieldEmail)

	result := Normalize(grid, mappings)

	if len(result.Contacts) != 1 {
		t.Errorf("Expected 1 contact, got %d", len(result.Contacts))
	}
	if len(result.Issues) != 0 {
		t.Errorf("Empty rows must not produce issues, got %v", result.Issues)
	}
}

func TestNormalizeInvalidEmailKeptWithWarning(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "not-an-email"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldEmail)

	result := Normalize(grid, mappings)

	if len(result.Contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(result.Contacts))
	}
	if result.Contacts[0].Email != "not-an-email" {
		t.Errorf("Invalid email should be kept as-is, got %q", result.Contacts[0].Email)
	}

	warned := false
	for _, issue := range result.Issues {
		if issue.Severity == interfaces.SeverityWarning && issue.RowIndex == 0 {
			warned = true
		}
	}
	if !warned {
		t.Error("Expected a warning for the invalid email")
	}
}

func TestNormalizeShortPhoneWarns(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "12345"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldPhone)

	result := Normalize(grid, mappings)

	if result.Contacts[0].Phone != "12345" {
		t.Errorf("Short phone should still be kept, got %q", result.Contacts[0].Phone)
	}
	if len(result.Issues) != 1 || result.Issues[0].Severity != interfaces.SeverityWarning {
		t.Errorf("Expected one warning for short phone, got %v", result.Issues)
	}
}

func TestNormalizeInternationalPhone(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "+1 (555) 123-4567"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldPhone)

	result := Normalize(grid, mappings)

	if result.Contacts[0].Phone != "+15551234567" {
		t.Errorf("Expected leading + preserved, got %q", result.Contacts[0].Phone)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john doe", "John Doe"},
		{"JOHN DOE", "John Doe"},
		{"John Doe", "John Doe"},
		{"Ronald McDonald", "Ronald McDonald"}, // intentional mixed case kept
		{"maría lópez", "María López"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cleanName(tt.input); got != tt.expected {
				t.Errorf("cleanName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeStateUppercased(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "or"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldState)

	result := Normalize(grid, mappings)

	if result.Contacts[0].State != "OR" {
		t.Errorf("Expected uppercased state code, got %q", result.Contacts[0].State)
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"roofing; repeat customer", []string{"roofing", "repeat customer"}},
		{"a|b|c", []string{"a", "b", "c"}},
		{"one, two", []string{"one", "two"}},
		{"single", []string{"single"}},
		{"  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := splitTags(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitTags(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeMultipleNotesColumns(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "first note", "second note"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldNotes, mapping.FieldNotes)

	result := Normalize(grid, mappings)

	if result.Contacts[0].Notes != "first note; second note" {
		t.Errorf("Expected joined notes, got %q", result.Contacts[0].Notes)
	}
}

func TestNormalizeUnknownColumnsIgnored(t *testing.T) {
	grid := gridOf([]string{"Alice Smith", "whatever"})
	mappings := contactMappings(mapping.FieldName, mapping.FieldUnknown)

	result := Normalize(grid, mappings)

	c := result.Contacts[0]
	if c.Email != "" || c.Phone != "" || c.Notes != "" {
		t.Errorf("Unknown column data leaked into contact: %+v", c)
	}
}
