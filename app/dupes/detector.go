package dupes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"contactimport/app/interfaces"
)

// Package dupes scores incoming contacts against the existing contact store.
// Blocking bounds the cost: an incoming contact is only compared against
// existing contacts sharing at least one coarse key (email local part, phone
// suffix, or first name token). The design is recall-biased — false positives
// are expected and resolved by human review in the wizard, never auto-merged
// or auto-discarded.

// Config holds the tuning knobs for duplicate detection. These are the main
// precision/recall trade-off and are surfaced through app/settings rather
// than hardcoded.
type Config struct {
	// Threshold is the minimum confidence for a pair to be reported.
	Threshold float64

	// EmailFloor is the confidence floor for an exact email match.
	EmailFloor float64

	// PhoneFloor is the confidence floor for an exact phone-digit match.
	PhoneFloor float64

	// NameWeight scales the name edit-distance similarity contribution.
	NameWeight float64

	// LocationWeight scales the shared city/address token contribution.
	LocationWeight float64

	// PhoneSuffixLength is how many trailing digits form the phone
	// blocking key.
	PhoneSuffixLength int

	// Workers bounds how many blocking groups are scored concurrently.
	Workers int

	// BlockQueryLimit caps how many existing contacts one blocking lookup
	// may return.
	BlockQueryLimit int
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:         0.5,
		EmailFloor:        0.9,
		PhoneFloor:        0.8,
		NameWeight:        0.5,
		LocationWeight:    0.2,
		PhoneSuffixLength: 7,
		Workers:           4,
		BlockQueryLimit:   200,
	}
}

// Detect compares each incoming contact against existing contacts fetched
// through the store's blocking lookups and returns all candidate pairs
// scoring at or above the threshold.
//
// Blocking groups are scored concurrently across at most cfg.Workers
// goroutines, and the merged result is sorted by descending confidence then
// input row order, so output ordering is reproducible regardless of
// scheduling.
func Detect(ctx context.Context, incoming []interfaces.ImportedContact, store interfaces.ContactStore, cfg Config) ([]interfaces.DuplicateCandidate, error) {
	if len(incoming) == 0 || store == nil {
		return []interfaces.DuplicateCandidate{}, nil
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	perContact := make([][]interfaces.DuplicateCandidate, len(incoming))
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for idx := range jobs {
				if errs[worker] != nil {
					continue // drain remaining jobs after a failure
				}
				candidates, err := scoreAgainstStore(ctx, incoming[idx], store, cfg)
				if err != nil {
					errs[worker] = err
					continue
				}
				perContact[idx] = candidates
			}
		}(w)
	}

dispatch:
	for i := range incoming {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("duplicate detection: %w", err)
		}
	}

	// Deterministic merge: flatten in input row order, then stable sort by
	// descending confidence so equal-confidence pairs keep row order.
	var merged []interfaces.DuplicateCandidate
	for _, candidates := range perContact {
		merged = append(merged, candidates...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	if merged == nil {
		merged = []interfaces.DuplicateCandidate{}
	}
	return merged, nil
}

// DetectAgainst scores incoming contacts against an in-memory set of
// existing contacts, bypassing store lookups. Used by tests and by callers
// that already hold the comparison set.
func DetectAgainst(incoming, existing []interfaces.ImportedContact, cfg Config) []interfaces.DuplicateCandidate {
	var out []interfaces.DuplicateCandidate
	for _, contact := range incoming {
		out = append(out, scorePairs(contact, existing, cfg)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if out == nil {
		out = []interfaces.DuplicateCandidate{}
	}
	return out
}

// scoreAgainstStore fetches the blocking groups for one incoming contact and
// scores it against their union.
func scoreAgainstStore(ctx context.Context, contact interfaces.ImportedContact, store interfaces.ContactStore, cfg Config) ([]interfaces.DuplicateCandidate, error) {
	var criteria []interfaces.QueryCriteria

	if local := emailLocalPart(contact.Email); local != "" {
		criteria = append(criteria, interfaces.QueryCriteria{
			EmailLocalPart: local,
			Limit:          cfg.BlockQueryLimit,
		})
	}
	if suffix := phoneSuffix(contact.Phone, cfg.PhoneSuffixLength); suffix != "" {
		criteria = append(criteria, interfaces.QueryCriteria{
			PhoneSuffix: suffix,
			Limit:       cfg.BlockQueryLimit,
		})
	}
	if token := firstNameToken(contact.Name); token != "" {
		criteria = append(criteria, interfaces.QueryCriteria{
			NameToken: token,
			Limit:     cfg.BlockQueryLimit,
		})
	}

	// Union the blocks, deduplicating existing contacts that share more
	// than one key with the incoming contact.
	seen := make(map[string]bool)
	var block []interfaces.ImportedContact
	for _, c := range criteria {
		existing, err := store.QueryExisting(ctx, c)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			key := existingKey(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			block = append(block, e)
		}
	}

	return scorePairs(contact, block, cfg), nil
}

// scorePairs scores one incoming contact against a comparison set, keeping
// pairs at or above the threshold.
func scorePairs(contact interfaces.ImportedContact, existing []interfaces.ImportedContact, cfg Config) []interfaces.DuplicateCandidate {
	var out []interfaces.DuplicateCandidate
	for _, e := range existing {
		confidence := Score(contact, e, cfg)
		if confidence >= cfg.Threshold {
			out = append(out, interfaces.DuplicateCandidate{
				Contact:       contact,
				ExistingMatch: describeExisting(e),
				Confidence:    confidence,
			})
		}
	}
	return out
}

// describeExisting renders a human-readable descriptor of an existing
// contact for the review screen.
func describeExisting(c interfaces.ImportedContact) string {
	parts := []string{c.Name}
	if c.Email != "" {
		parts = append(parts, "<"+c.Email+">")
	} else if c.Phone != "" {
		parts = append(parts, "("+c.Phone+")")
	}
	return strings.Join(parts, " ")
}

// existingKey identifies an existing contact across blocking groups.
func existingKey(c interfaces.ImportedContact) string {
	return strings.ToLower(c.Name) + "|" + emailKey(c.Email) + "|" + phoneDigits(c.Phone)
}
