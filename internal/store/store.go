package store

import (
	"errors"
	"fmt"

	"github.com/resqbites/matcher/internal/match"
)

// ErrDuplicateKey is wrapped by ValidationError when two records share a
// (donor_id, recipient_id) pair
var ErrDuplicateKey = errors.New("duplicate donor/recipient pair")

// ValidationError reports the first record that broke a store invariant
type ValidationError struct {
	Source string
	Index  int
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.Source, e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type pairKey struct{ donor, recipient string }

// Store is the read-only, ordered set of match records loaded at startup.
// Nothing hands out its backing slice, so it never changes after New.
type Store struct {
	records []match.Record
	index   map[pairKey]int
	stats   match.Stats
	source  string
}

// New validates records and builds a store over a private copy of them
func New(source string, records []match.Record) (*Store, error) {
	s := &Store{
		records: make([]match.Record, len(records)),
		index:   make(map[pairKey]int, len(records)),
		source:  source,
	}
	copy(s.records, records)

	for i, r := range s.records {
		if err := r.Validate(); err != nil {
			return nil, &ValidationError{Source: source, Index: i, Err: err}
		}
		key := pairKey{r.DonorID, r.RecipientID}
		if _, dup := s.index[key]; dup {
			return nil, &ValidationError{Source: source, Index: i, Err: fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key())}
		}
		s.index[key] = i
	}

	s.stats = match.ComputeStats(s.records)
	return s, nil
}

// Records returns a copy of every record in load order
func (s *Store) Records() []match.Record {
	out := make([]match.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Store) Len() int { return len(s.records) }

// Source names where the records came from
func (s *Store) Source() string { return s.source }

// Stats returns the aggregates over the whole store
func (s *Store) Stats() match.Stats { return s.stats }

// View returns the filtered and sorted records for a selection
func (s *Store) View(fs match.FilterSort) []match.Record {
	return fs.Apply(s.records)
}

// Lookup finds the record for a donor/recipient pair
func (s *Store) Lookup(donorID, recipientID string) (match.Record, bool) {
	i, ok := s.index[pairKey{donorID, recipientID}]
	if !ok {
		return match.Record{}, false
	}
	return s.records[i], true
}
