package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"contactimport/app/interfaces"
)

// Commit performs the batched write of the selected contacts (selected rows
// plus explicitly included duplicates) to the contact store through a
// bounded worker pool with a per-write timeout.
//
// Partial failure is reported per record: a write that fails or times out is
// a CommitFailure for that contact only, never an abort of the batch, and
// nothing is rolled back. Timed-out writes get one bounded retry before
// being reported. Contact records are idempotent by design — re-importing is
// safe because duplicates are the detector's job, not the commit's — so a
// cancel racing an in-flight commit leaves any completed writes in place.
func (s *Session) Commit(ctx context.Context) (*CommitResult, error) {
	s.mu.Lock()
	if s.state != StateConfirm {
		defer s.mu.Unlock()
		return nil, &StateError{State: s.state, Event: string(eventCommit)}
	}
	if s.store == nil {
		defer s.mu.Unlock()
		return nil, fmt.Errorf("no contact store configured")
	}
	batch := s.commitSet()
	workers := s.settings.CommitWorkers
	if workers < 1 {
		workers = 1
	}
	timeout := s.settings.CommitTimeout()
	store := s.store
	s.mu.Unlock()

	log.Printf("[COMMIT] %s: writing %d contacts with %d workers", s.ID, len(batch), workers)

	type indexedFailure struct {
		index   int
		failure CommitFailure
	}

	jobs := make(chan int)
	failures := make(chan indexedFailure, len(batch))
	var saved int64
	var savedMu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := writeWithRetry(ctx, store, batch[idx], timeout); err != nil {
					failures <- indexedFailure{index: idx, failure: CommitFailure{
						Contact: batch[idx],
						Reason:  err.Error(),
					}}
					continue
				}
				savedMu.Lock()
				saved++
				savedMu.Unlock()
			}
		}()
	}

	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(failures)

	result := &CommitResult{SavedCount: int(saved)}
	collected := make([]indexedFailure, 0, len(failures))
	for f := range failures {
		collected = append(collected, f)
	}
	// Report failures in batch order regardless of worker scheduling.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})
	for _, f := range collected {
		result.Failures = append(result.Failures, f.failure)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.apply(eventCommit); err != nil {
		return result, err
	}

	log.Printf("[COMMIT] %s: saved %d, failed %d", s.ID, result.SavedCount, len(result.Failures))
	return result, nil
}

// writeWithRetry saves one contact with a per-write timeout. Only a timeout
// earns the single retry; other errors are reported immediately.
func writeWithRetry(ctx context.Context, store interfaces.ContactStore, contact interfaces.ImportedContact, timeout time.Duration) error {
	err := writeOnce(ctx, store, contact, timeout)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return writeOnce(ctx, store, contact, timeout)
	}
	return err
}

func writeOnce(ctx context.Context, store interfaces.ContactStore, contact interfaces.ImportedContact, timeout time.Duration) error {
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := store.Save(writeCtx, contact)
	return err
}
