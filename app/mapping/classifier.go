package mapping

import (
	"strings"
	"unicode"

	"contactimport/app/fileloader"
	"contactimport/app/interfaces"
)

// Package mapping classifies grid columns against the curated field table in
// fields.go. For each column it combines a header-keyword score with a
// value-pattern score over a sample of cell values and picks the best target
// field with a confidence value. Ambiguous columns map to "unknown" rather
// than silently defaulting to a high-confidence wrong field.

const (
	// headerWeight and valueWeight combine the two evidence sources.
	headerWeight = 0.6
	valueWeight  = 0.4

	// AcceptanceThreshold is the minimum combined score for a column to be
	// mapped to a concrete field. Below it, TargetField is "unknown" and
	// the confidence still reflects the (low) best score.
	AcceptanceThreshold = 0.35

	// tieEpsilon defines how close two field scores must be for the fixed
	// priority order in fieldSpecs to decide the winner.
	tieEpsilon = 0.01

	// sampleSize is how many non-empty values per column are inspected.
	sampleSize = 10
)

// Classify produces one ColumnMapping per grid column, in column order.
// Running it twice on identical input yields identical results: there is no
// randomness anywhere in the scoring.
func Classify(grid *interfaces.Grid, analysis *interfaces.StructuralAnalysis) []interfaces.ColumnMapping {
	mappings := make([]interfaces.ColumnMapping, 0, grid.ColumnCount())

	for col := 0; col < grid.ColumnCount(); col++ {
		header := grid.Header[col]
		// Synthetic headers (Unnamed_A, ...) carry no keyword evidence;
		// scoring them would let "Unnamed" collide with real keywords.
		// Blank header cells in a header-bearing file get the same
		// placeholders, so they are suppressed too.
		scoringHeader := header
		if !grid.HasHeaderRow || fileloader.IsSyntheticHeader(header) {
			scoringHeader = ""
		}
		samples := sampleColumn(grid, col, sampleSize)
		mappings = append(mappings, classifyColumn(col, header, scoringHeader, samples))
	}

	return mappings
}

// classifyColumn scores every candidate field for one column and picks the
// best. Ties within tieEpsilon resolve to the field earlier in fieldSpecs.
func classifyColumn(index int, header, scoringHeader string, samples []string) interfaces.ColumnMapping {
	token := normalizeHeaderToken(scoringHeader)

	best := -1
	bestScore := 0.0
	for i, spec := range fieldSpecs {
		score := headerWeight*headerScore(token, spec.keywords) +
			valueWeight*valueScore(samples, spec.validate)
		if score > bestScore+tieEpsilon {
			best = i
			bestScore = score
		} else if best == -1 && score > bestScore {
			best = i
			bestScore = score
		}
	}

	mapping := interfaces.ColumnMapping{
		ColumnIndex:    index,
		OriginalHeader: header,
		TargetField:    FieldUnknown,
		DetectedType:   detectPatternFamily(samples),
		Confidence:     clamp01(bestScore),
		Examples:       samples,
	}

	if best >= 0 && bestScore >= AcceptanceThreshold {
		mapping.TargetField = fieldSpecs[best].target
	}

	return mapping
}

// headerScore matches the normalized header token against a field's keyword
// list: exact match scores 1, substring containment in either direction
// scores 0.7.
func headerScore(token string, keywords []string) float64 {
	if token == "" {
		return 0
	}
	score := 0.0
	for _, kw := range keywords {
		switch {
		case token == kw:
			return 1
		case strings.Contains(token, kw) || strings.Contains(kw, token):
			if score < 0.7 {
				score = 0.7
			}
		}
	}
	return score
}

// valueScore averages the validator over the sampled values. Columns with no
// samples score zero: absent evidence is not evidence.
func valueScore(samples []string, validate func(string) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += validate(v)
	}
	return sum / float64(len(samples))
}

// sampleColumn collects up to limit non-empty values from a column, in row
// order for determinism.
func sampleColumn(grid *interfaces.Grid, col, limit int) []string {
	samples := make([]string, 0, limit)
	for _, row := range grid.Rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		samples = append(samples, v)
		if len(samples) == limit {
			break
		}
	}
	return samples
}

// normalizeHeaderToken lowercases the header and strips punctuation so
// "E-Mail", "e_mail" and "Email:" all normalize to comparable tokens.
func normalizeHeaderToken(header string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace && b.Len() > 0:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// detectPatternFamily records which value-pattern family dominates the
// sampled values, independent of the chosen target field. The review UI
// shows this alongside the mapping for transparency.
func detectPatternFamily(samples []string) interfaces.FieldType {
	if len(samples) == 0 {
		return interfaces.FieldTypeEmpty
	}

	emails, phones, numeric, zips, long := 0, 0, 0, 0, 0
	for _, v := range samples {
		switch {
		case scoreEmailValue(v) == 1:
			emails++
		case scorePhoneValue(v) == 1:
			phones++
		case zipPattern.MatchString(v):
			zips++
		case isDigits(v):
			numeric++
		case len(v) > 80:
			long++
		}
	}

	majority := (len(samples) + 1) / 2
	switch {
	case emails >= majority:
		return interfaces.FieldTypeEmailLike
	case phones >= majority:
		return interfaces.FieldTypePhoneLike
	case zips >= majority:
		return interfaces.FieldTypePostalCode
	case numeric >= majority:
		return interfaces.FieldTypeNumeric
	case long >= majority:
		return interfaces.FieldTypeFreeText
	default:
		return interfaces.FieldTypeShortText
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
