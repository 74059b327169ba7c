package interfaces

import "context"

// Package interfaces holds the shared type definitions used across the import
// engine's packages. Keeping them in a leaf package lets the pipeline stages
// (fileloader, structure, mapping, normalize, dupes) stay independent of each
// other and of the session controller.

// Grid is the format-agnostic rectangular result of parsing a tabular file.
// Every parser strategy (CSV, XLSX, JSON) produces this same shape so
// downstream stages never care about the source format.
type Grid struct {
	// Header is the normalized header row. When the file had no header row,
	// synthetic names (Unnamed_A, Unnamed_B, ...) are generated instead.
	Header []string

	// Rows holds the data rows. All rows are padded or truncated to
	// len(Header) cells.
	Rows [][]string

	// RawWidths records the cell count of each row before padding. The
	// structural analyzer uses this to flag width mismatches that padding
	// would otherwise hide.
	RawWidths []int

	// HasHeaderRow reports whether the first row of the source file was
	// consumed as a header.
	HasHeaderRow bool
}

// ColumnCount returns the detected column count of the grid.
func (g *Grid) ColumnCount() int {
	return len(g.Header)
}

// RowCount returns the number of data rows in the grid.
func (g *Grid) RowCount() int {
	return len(g.Rows)
}

// Severity classifies how serious an import issue is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ImportIssue describes a single problem found while processing a file.
// Issues are purely descriptive and never block processing by themselves;
// the only issue with a hard consequence is the missing-name error emitted
// by the normalizer, which excludes that row from the contact set.
type ImportIssue struct {
	// RowIndex is the 0-based data-row index this issue refers to, or -1
	// for file-level issues.
	RowIndex int      `json:"rowIndex"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Quality is the advisory structural classification of a parsed file.
type Quality string

const (
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
	QualityCorrupted Quality = "corrupted"
)

// StructuralAnalysis summarizes how well-formed a grid is. It is advisory:
// processing continues regardless of the quality classification.
type StructuralAnalysis struct {
	OverallQuality Quality       `json:"overallQuality"`
	Issues         []ImportIssue `json:"issues"`
	ColumnCount    int           `json:"columnCount"`
	RowCount       int           `json:"rowCount"`
}

// FieldType names the value-pattern family that won a column classification.
// It is recorded independently of the chosen target field so the review UI
// can show why a column was mapped the way it was.
type FieldType string

const (
	FieldTypeEmailLike  FieldType = "email-like"
	FieldTypePhoneLike  FieldType = "phone-like"
	FieldTypeNumeric    FieldType = "numeric"
	FieldTypePostalCode FieldType = "postal-code"
	FieldTypeShortText  FieldType = "short-text"
	FieldTypeFreeText   FieldType = "free-text"
	FieldTypeEmpty      FieldType = "empty"
)

// ColumnMapping records the classification decision for one column.
type ColumnMapping struct {
	ColumnIndex    int       `json:"columnIndex"`
	OriginalHeader string    `json:"originalHeader"`
	DetectedType   FieldType `json:"detectedType"`
	TargetField    string    `json:"targetField"`
	Confidence     float64   `json:"confidence"`
	Examples       []string  `json:"examples"`
}

// ImportedContact is a normalized contact record produced from one data row.
// Name is the only field whose absence disqualifies the row from import.
type ImportedContact struct {
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address string   `json:"address,omitempty"`
	City    string   `json:"city,omitempty"`
	State   string   `json:"state,omitempty"`
	ZipCode string   `json:"zipCode,omitempty"`
	Notes   string   `json:"notes,omitempty"`
	Source  string   `json:"source,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	// RowIndex is the 0-based data-row index this contact came from.
	RowIndex int `json:"rowIndex"`
}

// DuplicateCandidate pairs an incoming contact with a human-readable
// descriptor of an existing contact it likely duplicates.
type DuplicateCandidate struct {
	Contact       ImportedContact `json:"contact"`
	ExistingMatch string          `json:"existingMatch"`
	Confidence    float64         `json:"confidence"`
}

// ImportStats carries the user-facing counters shown on the review screen.
type ImportStats struct {
	ValidContacts   int `json:"validContacts"`
	AutoCorrections int `json:"autoCorrections"`
}

// QueryCriteria narrows ContactStore.QueryExisting lookups. Zero-value
// criteria matches everything. The fields mirror the duplicate detector's
// blocking keys so stores can answer lookups without a full scan.
type QueryCriteria struct {
	// EmailLocalPart matches contacts whose email local part (before the @,
	// lowercased) equals this value.
	EmailLocalPart string

	// PhoneSuffix matches contacts whose phone digits end with this value.
	PhoneSuffix string

	// NameToken matches contacts whose first name token equals this value,
	// case-insensitively.
	NameToken string

	// Limit caps the number of returned contacts; 0 means no cap.
	Limit int
}

// ContactStore is the narrow read/write contract the engine requires from
// the surrounding application's persistent contact store. The engine never
// assumes a specific storage technology.
type ContactStore interface {
	// Save persists one contact and returns its assigned id.
	Save(ctx context.Context, contact ImportedContact) (string, error)

	// QueryExisting returns stored contacts matching the criteria.
	QueryExisting(ctx context.Context, criteria QueryCriteria) ([]ImportedContact, error)
}

// ProgressCallback provides feedback while a pipeline stage runs.
type ProgressCallback func(stage string, current, total int64, message string)

// NoOpProgressCallback discards all progress updates.
func NoOpProgressCallback(stage string, current, total int64, message string) {}
