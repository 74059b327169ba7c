package app

import (
	"fmt"

	"contactimport/app/interfaces"
)

// WizardState identifies a stage of the import wizard.
type WizardState string

const (
	StateUpload     WizardState = "upload"
	StateAnalyzing  WizardState = "analyzing"
	StateReview     WizardState = "review"
	StateDuplicates WizardState = "duplicates"
	StateConfirm    WizardState = "confirm"
	StateComplete   WizardState = "complete"
)

// StateError reports an event applied in a wizard state that does not
// permit it.
type StateError struct {
	State WizardState
	Event string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s from state %q", e.Event, e.State)
}

// Summary is the session output consumed by the UI layer after analysis.
type Summary struct {
	Success            bool                            `json:"success"`
	Contacts           []interfaces.ImportedContact    `json:"contacts"`
	Issues             []interfaces.ImportIssue        `json:"issues"`
	Duplicates         []interfaces.DuplicateCandidate `json:"duplicates"`
	Stats              interfaces.ImportStats          `json:"stats"`
	StructuralAnalysis *interfaces.StructuralAnalysis  `json:"structuralAnalysis,omitempty"`
	Mappings           []interfaces.ColumnMapping      `json:"mappings,omitempty"`
	Error              string                          `json:"error,omitempty"`
}

// CommitFailure records one contact that could not be written during commit.
type CommitFailure struct {
	Contact interfaces.ImportedContact `json:"contact"`
	Reason  string                     `json:"reason"`
}

// CommitResult summarizes the batched commit. Partial failure is reported
// per record; there is no all-or-nothing rollback because contact creation
// has no cross-record invariant requiring atomicity.
type CommitResult struct {
	SavedCount int             `json:"savedCount"`
	Failures   []CommitFailure `json:"failures"`
}
