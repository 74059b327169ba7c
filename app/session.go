package app

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"contactimport/app/cache"
	"contactimport/app/dupes"
	"contactimport/app/fileloader"
	"contactimport/app/interfaces"
	"contactimport/app/mapping"
	"contactimport/app/normalize"
	"contactimport/app/settings"
	"contactimport/app/structure"
)

// Package app owns the import session: a finite-state machine that drives
// one file through parse → analyze → classify → normalize → detect-duplicates
// and a reviewed, batched commit. The pipeline stages are pure functions in
// their own packages; the session is the only holder of mutable state, and
// every mutation goes through apply() so transitions are validated in one
// place instead of scattered reactive recomputation.

// Session is one import workflow for one file. Sessions are created by a
// Manager, mutated only through their exported methods, and discarded after
// commit or cancellation; they are never persisted.
type Session struct {
	ID string

	mu    sync.Mutex
	state WizardState

	store    interfaces.ContactStore
	settings settings.Settings
	cache    *cache.Cache
	progress interfaces.ProgressCallback

	grid     *interfaces.Grid
	analysis *interfaces.StructuralAnalysis
	mappings []interfaces.ColumnMapping
	contacts []interfaces.ImportedContact
	issues   []interfaces.ImportIssue
	dupesSet []interfaces.DuplicateCandidate

	autoCorrections int

	// selectedContacts holds the row indexes of contacts selected for
	// commit. selectedDuplicates holds indexes into dupesSet whose
	// contacts the user chose to include despite the flag.
	selectedContacts   map[int]bool
	selectedDuplicates map[int]bool

	// cancel aborts in-flight pipeline work for this session only.
	cancel context.CancelFunc

	lastError string
}

// sessionEvent names the FSM inputs for transition validation.
type sessionEvent string

const (
	eventStartAnalysis sessionEvent = "start analysis"
	eventFinishUpload  sessionEvent = "finish analysis"
	eventToDuplicates  sessionEvent = "open duplicates"
	eventBackToReview  sessionEvent = "return to review"
	eventToConfirm     sessionEvent = "confirm"
	eventCommit        sessionEvent = "commit"
	eventReset         sessionEvent = "reset"
)

// NewSession creates a session in the upload state. store may be nil, in
// which case duplicate detection is skipped and commit fails.
func NewSession(store interfaces.ContactStore, cfg settings.Settings, c *cache.Cache, progress interfaces.ProgressCallback) *Session {
	if progress == nil {
		progress = interfaces.NoOpProgressCallback
	}
	return &Session{
		ID:                 uuid.NewString(),
		state:              StateUpload,
		store:              store,
		settings:           cfg,
		cache:              c,
		progress:           progress,
		selectedContacts:   make(map[int]bool),
		selectedDuplicates: make(map[int]bool),
	}
}

// State returns the current wizard state.
func (s *Session) State() WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// apply validates and performs one state transition. It is the single
// mutation entry point for the wizard state; callers hold s.mu.
func (s *Session) apply(event sessionEvent) error {
	var next WizardState

	switch event {
	case eventStartAnalysis:
		if s.state != StateUpload {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateAnalyzing

	case eventFinishUpload:
		if s.state != StateAnalyzing {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateReview

	case eventToDuplicates:
		// The duplicates stage is skippable and never shown empty.
		if s.state != StateReview || len(s.dupesSet) == 0 {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateDuplicates

	case eventBackToReview:
		if s.state != StateDuplicates {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateReview

	case eventToConfirm:
		switch s.state {
		case StateDuplicates:
			next = StateConfirm // unconditional: duplicate selection is optional
		case StateReview:
			if len(s.dupesSet) > 0 {
				// Candidates exist, so the duplicates stage must be
				// visited (or explicitly skipped through it) first.
				return &StateError{State: s.state, Event: string(event)}
			}
			next = StateConfirm
		default:
			return &StateError{State: s.state, Event: string(event)}
		}

	case eventCommit:
		if s.state != StateConfirm {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateComplete

	case eventReset:
		if s.state == StateComplete {
			return &StateError{State: s.state, Event: string(event)}
		}
		next = StateUpload

	default:
		return &StateError{State: s.state, Event: string(event)}
	}

	log.Printf("[SESSION] %s: %s -> %s (%s)", s.ID, s.state, next, event)
	s.state = next
	return nil
}

// StartAnalysis runs the full pipeline over raw file bytes. On parse failure
// the session remains in the upload state and the error is returned; every
// non-fatal problem is accumulated into issues instead. On success the
// session lands in review with all contacts selected.
//
// The pipeline honours ctx: cancelling it (or calling Cancel) aborts the
// work and resets the session to upload without affecting other sessions.
func (s *Session) StartAnalysis(ctx context.Context, data []byte, declared fileloader.Format) error {
	s.mu.Lock()
	if err := s.apply(eventStartAnalysis); err != nil {
		s.mu.Unlock()
		return err
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	summaryErr := s.runPipeline(ctx, data, declared)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil

	if summaryErr != nil {
		// Fatal to the session: no partial session state survives and the
		// wizard stays at upload.
		s.resetLocked()
		s.lastError = summaryErr.Error()
		log.Printf("[SESSION] %s: analysis failed: %v", s.ID, summaryErr)
		return summaryErr
	}

	if err := s.apply(eventFinishUpload); err != nil {
		return err
	}

	// Defaults: every contact selected, flagged duplicates excluded.
	flagged := make(map[int]bool)
	for _, d := range s.dupesSet {
		flagged[d.Contact.RowIndex] = true
	}
	for _, c := range s.contacts {
		s.selectedContacts[c.RowIndex] = !flagged[c.RowIndex]
	}

	return nil
}

// runPipeline executes the staged pipeline. Only errors that prevent
// producing a grid at all are returned; everything else accumulates.
func (s *Session) runPipeline(ctx context.Context, data []byte, declared fileloader.Format) error {
	opts := fileloader.Options{MaxBytes: s.settings.MaxFileBytes()}
	fingerprint := cache.Fingerprint(data)

	// Parse
	s.progress("parse", 0, 1, "parsing file")
	grid, err := s.cachedParse(fingerprint, data, declared, opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Analyze
	s.progress("analyze", 0, int64(grid.RowCount()), "assessing structure")
	analysis := s.cachedAnalyze(fingerprint, opts, grid)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Classify
	s.progress("classify", 0, int64(grid.ColumnCount()), "mapping columns")
	mappings := s.cachedClassify(fingerprint, opts, grid, analysis)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Normalize
	s.progress("normalize", 0, int64(grid.RowCount()), "normalizing rows")
	normalized := normalize.Normalize(grid, mappings)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Detect duplicates
	var candidates []interfaces.DuplicateCandidate
	if s.store != nil {
		s.progress("duplicates", 0, int64(len(normalized.Contacts)), "scoring duplicates")
		candidates, err = dupes.Detect(ctx, normalized.Contacts, s.store, s.dupesConfig())
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.grid = grid
	s.analysis = analysis
	s.mappings = mappings
	s.contacts = normalized.Contacts
	s.autoCorrections = normalized.AutoCorrections
	s.issues = append([]interfaces.ImportIssue{}, analysis.Issues...)
	s.issues = append(s.issues, normalized.Issues...)
	s.dupesSet = candidates
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// cachedParse parses through the result cache when one is configured.
func (s *Session) cachedParse(fingerprint string, data []byte, declared fileloader.Format, opts fileloader.Options) (*interfaces.Grid, error) {
	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageParse)
		if entry, ok := s.cache.Get(key); ok && entry.Grid != nil {
			log.Printf("[CACHE_HIT] parse %s", key)
			return entry.Grid, nil
		}
	}

	grid, err := fileloader.Parse(data, declared, opts)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageParse)
		s.cache.Store(key, &cache.Entry{Grid: grid})
	}
	return grid, nil
}

func (s *Session) cachedAnalyze(fingerprint string, opts fileloader.Options, grid *interfaces.Grid) *interfaces.StructuralAnalysis {
	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageAnalyze)
		if entry, ok := s.cache.Get(key); ok && entry.Analysis != nil {
			log.Printf("[CACHE_HIT] analyze %s", key)
			return entry.Analysis
		}
	}

	analysis := structure.Analyze(grid)

	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageAnalyze)
		s.cache.Store(key, &cache.Entry{Analysis: analysis})
	}
	return analysis
}

func (s *Session) cachedClassify(fingerprint string, opts fileloader.Options, grid *interfaces.Grid, analysis *interfaces.StructuralAnalysis) []interfaces.ColumnMapping {
	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageClassify)
		if entry, ok := s.cache.Get(key); ok && entry.Mappings != nil {
			log.Printf("[CACHE_HIT] classify %s", key)
			return entry.Mappings
		}
	}

	mappings := mapping.Classify(grid, analysis)

	if s.cache != nil {
		key := cache.StageKey(fingerprint, opts.Key(), cache.StageClassify)
		s.cache.Store(key, &cache.Entry{Mappings: mappings})
	}
	return mappings
}

func (s *Session) dupesConfig() dupes.Config {
	cfg := dupes.DefaultConfig()
	cfg.Threshold = s.settings.DuplicateThreshold
	cfg.EmailFloor = s.settings.EmailMatchFloor
	cfg.PhoneFloor = s.settings.PhoneMatchFloor
	cfg.PhoneSuffixLength = s.settings.PhoneSuffixLength
	cfg.Workers = s.settings.DetectWorkers
	return cfg
}

// OpenDuplicates moves review -> duplicates. Valid only when the detector
// found at least one candidate.
func (s *Session) OpenDuplicates() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(eventToDuplicates)
}

// BackToReview moves duplicates -> review.
func (s *Session) BackToReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(eventBackToReview)
}

// Confirm moves the session to the confirm stage. From review this is only
// valid when no duplicate candidates exist (the duplicates stage is never
// shown empty, and never skipped silently when candidates exist); from
// duplicates it is unconditional.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(eventToConfirm)
}

// HasDuplicates reports whether the detector flagged any candidates.
func (s *Session) HasDuplicates() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dupesSet) > 0
}

// SelectContact includes or excludes one contact row from the commit set.
func (s *Session) SelectContact(rowIndex int, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview && s.state != StateDuplicates && s.state != StateConfirm {
		return &StateError{State: s.state, Event: "select contact"}
	}
	for _, c := range s.contacts {
		if c.RowIndex == rowIndex {
			s.selectedContacts[rowIndex] = selected
			return nil
		}
	}
	return &StateError{State: s.state, Event: "select unknown contact row"}
}

// SelectDuplicate includes or excludes one flagged duplicate (by its index
// in the Duplicates list) from the commit set. The default is exclude-all.
func (s *Session) SelectDuplicate(index int, include bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDuplicates && s.state != StateConfirm {
		return &StateError{State: s.state, Event: "select duplicate"}
	}
	if index < 0 || index >= len(s.dupesSet) {
		return &StateError{State: s.state, Event: "select unknown duplicate"}
	}
	s.selectedDuplicates[index] = include
	return nil
}

// Reset cancels any in-flight work and returns the session to upload,
// discarding all derived state. Valid from every state except complete.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.apply(eventReset); err != nil {
		return err
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.resetLocked()
	return nil
}

// Cancel aborts in-flight pipeline work without validating a transition;
// the interrupted StartAnalysis call observes the cancellation and resets.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// resetLocked clears derived state; callers hold s.mu.
func (s *Session) resetLocked() {
	s.state = StateUpload
	s.grid = nil
	s.analysis = nil
	s.mappings = nil
	s.contacts = nil
	s.issues = nil
	s.dupesSet = nil
	s.autoCorrections = 0
	s.selectedContacts = make(map[int]bool)
	s.selectedDuplicates = make(map[int]bool)
}

// Summary returns the session output consumed by the UI layer.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := Summary{
		Success:            s.lastError == "" && s.state != StateUpload,
		Contacts:           append([]interfaces.ImportedContact{}, s.contacts...),
		Issues:             append([]interfaces.ImportIssue{}, s.issues...),
		Duplicates:         append([]interfaces.DuplicateCandidate{}, s.dupesSet...),
		StructuralAnalysis: s.analysis,
		Mappings:           append([]interfaces.ColumnMapping{}, s.mappings...),
		Error:              s.lastError,
		Stats: interfaces.ImportStats{
			ValidContacts:   len(s.contacts),
			AutoCorrections: s.autoCorrections,
		},
	}
	return summary
}

// Duplicates returns the flagged duplicate candidates.
func (s *Session) Duplicates() []interfaces.DuplicateCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.DuplicateCandidate{}, s.dupesSet...)
}

// Contacts returns the normalized contacts.
func (s *Session) Contacts() []interfaces.ImportedContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.ImportedContact{}, s.contacts...)
}

// commitSet resolves the selection into the contacts to write: selected
// contacts plus duplicates the user explicitly included.
func (s *Session) commitSet() []interfaces.ImportedContact {
	include := make(map[int]bool)
	for row, selected := range s.selectedContacts {
		if selected {
			include[row] = true
		}
	}
	for idx, included := range s.selectedDuplicates {
		if included && idx < len(s.dupesSet) {
			include[s.dupesSet[idx].Contact.RowIndex] = true
		}
	}

	var out []interfaces.ImportedContact
	for _, c := range s.contacts {
		if include[c.RowIndex] {
			out = append(out, c)
		}
	}
	return out
}
