package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contactimport/app/interfaces"
	"contactimport/app/mapping"
)

// Package normalize applies a column mapping to every data row, producing one
// canonical contact record per row. Value-level corrections (whitespace,
// casing, phone/email shape) are counted for user visibility; per-row
// problems are recorded as issues with severity. The engine never silently
// drops a row that has a name — only rows with no usable name after mapping
// are excluded, each with exactly one error-level issue.

// minPhoneDigits is the digit count below which a phone value draws a warning.
const minPhoneDigits = 7

// Result is the output of normalizing a grid.
type Result struct {
	Contacts []interfaces.ImportedContact
	Issues   []interfaces.ImportIssue

	// AutoCorrections counts distinct corrective transforms applied
	// (trimming, casing, reformatting). Cosmetic, not a gate.
	AutoCorrections int
}

var titleCaser = cases.Title(language.Und)

// Normalize converts grid rows into contact records using the column
// mapping. Rows that are entirely empty are skipped silently; rows with an
// empty name after mapping are excluded and recorded as an error issue; all
// other rows are included however malformed, with accumulated issues.
func Normalize(grid *interfaces.Grid, mappings []interfaces.ColumnMapping) *Result {
	result := &Result{
		Contacts: []interfaces.ImportedContact{},
		Issues:   []interfaces.ImportIssue{},
	}

	for rowIdx, row := range grid.Rows {
		if isEmptyRow(row) {
			continue
		}

		contact, issues, corrections := normalizeRow(rowIdx, row, mappings)
		result.AutoCorrections += corrections

		if strings.TrimSpace(contact.Name) == "" {
			result.Issues = append(result.Issues, interfaces.ImportIssue{
				RowIndex: rowIdx,
				Severity: interfaces.SeverityError,
				Message:  "row skipped — missing required name",
			})
			continue
		}

		result.Contacts = append(result.Contacts, contact)
		result.Issues = append(result.Issues, issues...)
	}

	return result
}

// normalizeRow maps one row through the column mapping, applying the
// per-field transform for each mapped column.
func normalizeRow(rowIdx int, row []string, mappings []interfaces.ColumnMapping) (interfaces.ImportedContact, []interfaces.ImportIssue, int) {
	contact := interfaces.ImportedContact{RowIndex: rowIdx}
	var issues []interfaces.ImportIssue
	corrections := 0

	for _, m := range mappings {
		if m.ColumnIndex >= len(row) {
			continue
		}
		raw := row[m.ColumnIndex]
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if raw != strings.TrimSpace(raw) {
			corrections++
		}

		switch m.TargetField {
		case mapping.FieldName:
			name := cleanName(strings.TrimSpace(raw))
			if name != strings.TrimSpace(raw) {
				corrections++
			}
			contact.Name = name

		case mapping.FieldEmail:
			email, ok, corrected := cleanEmail(raw)
			if corrected {
				corrections++
			}
			if !ok {
				issues = append(issues, interfaces.ImportIssue{
					RowIndex: rowIdx,
					Severity: interfaces.SeverityWarning,
					Message:  fmt.Sprintf("email %q does not look valid; kept as-is", email),
				})
			}
			contact.Email = email

		case mapping.FieldPhone:
			phone, digits, corrected := cleanPhone(raw)
			if corrected {
				corrections++
			}
			if digits < minPhoneDigits {
				issues = append(issues, interfaces.ImportIssue{
					RowIndex: rowIdx,
					Severity: interfaces.SeverityWarning,
					Message:  fmt.Sprintf("phone %q has only %d digits", strings.TrimSpace(raw), digits),
				})
			}
			contact.Phone = phone

		case mapping.FieldAddress:
			contact.Address = strings.TrimSpace(raw)

		case mapping.FieldCity:
			contact.City = strings.TrimSpace(raw)

		case mapping.FieldState:
			state := strings.TrimSpace(raw)
			if len(state) == 2 {
				upper := strings.ToUpper(state)
				if upper != state {
					corrections++
				}
				state = upper
			}
			contact.State = state

		case mapping.FieldZip:
			contact.ZipCode = strings.TrimSpace(raw)

		case mapping.FieldNotes:
			contact.Notes = appendClause(contact.Notes, strings.TrimSpace(raw))

		case mapping.FieldSource:
			contact.Source = strings.TrimSpace(raw)

		case mapping.FieldTags:
			contact.Tags = splitTags(raw)
		}
	}

	return contact, issues, corrections
}

// cleanName title-cases a raw name. All-caps and all-lowercase names both
// normalize to title case; mixed-case input is left alone because it often
// carries intentional casing (McDonald, van der Berg).
func cleanName(name string) string {
	lower := strings.ToLower(name)
	upper := strings.ToUpper(name)
	if name == lower || name == upper {
		return titleCaser.String(lower)
	}
	return name
}

// cleanEmail lowercases and trims an email, checking the minimal shape:
// an "@" with a "." somewhere after it. Invalid emails are kept raw (the
// caller records a warning) rather than dropped.
func cleanEmail(raw string) (email string, ok bool, corrected bool) {
	email = strings.ToLower(strings.TrimSpace(raw))
	corrected = email != raw

	at := strings.Index(email, "@")
	ok = at > 0 && strings.Contains(email[at:], ".")
	return email, ok, corrected
}

// cleanPhone strips everything but digits, keeping a leading + for
// international numbers.
func cleanPhone(raw string) (phone string, digits int, corrected bool) {
	var b strings.Builder
	trimmed := strings.TrimSpace(raw)
	for i, r := range trimmed {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			digits++
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	phone = b.String()
	return phone, digits, phone != trimmed
}

// splitTags splits a tag list on the common delimiters.
func splitTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	sep := ","
	for _, candidate := range []string{";", "|"} {
		if strings.Contains(raw, candidate) {
			sep = candidate
			break
		}
	}

	var tags []string
	for _, t := range strings.Split(raw, sep) {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func appendClause(existing, clause string) string {
	if existing == "" {
		return clause
	}
	return existing + "; " + clause
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
