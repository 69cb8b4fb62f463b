package afactory

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

// DefaultSequenceStart is the first value a sequence passes to its FormatFunc.
const DefaultSequenceStart = 1

// FormatFunc turns the current value of a sequence into the generated value.
type FormatFunc func(n int64) string

// Prefix returns a FormatFunc generating prefix1, prefix2, ...
func Prefix(prefix string) FormatFunc {
	return func(n int64) string {
		return prefix + strconv.FormatInt(n, 10)
	}
}

// NewSequences returns an empty set of sequences, each starting at start.
func NewSequences(start int64) *Sequences {
	return &Sequences{
		mu:        sync.RWMutex{},
		start:     start,
		sequences: map[string]*sequence{},
	}
}

// Sequences holds named counters used to generate unique values.
// The counters are safe for concurrent use, so tests running in parallel
// never receive the same value from the same sequence.
//
// Resetting the counters between test runs is up to the caller, see Reset.
type Sequences struct {
	mu        sync.RWMutex
	start     int64
	sequences map[string]*sequence
}

type sequence struct {
	calls  atomic.Int64
	format FormatFunc
}

// Define registers a new sequence under name.
func (s *Sequences) Define(name string, format FormatFunc) error {
	if name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}

	if format == nil {
		return fmt.Errorf("%w: sequence %s has no format", ErrInvalidTemplate, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sequences[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSequence, name)
	}

	s.sequences[name] = &sequence{format: format}

	return nil
}

// Generate advances the sequence by exactly one and returns the formatted value.
func (s *Sequences) Generate(name string) (string, error) {
	s.mu.RLock()
	seq, exists := s.sequences[name]
	s.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownSequence, name)
	}

	n := s.start + seq.calls.Add(1) - 1

	return seq.format(n), nil
}

// Reset rewinds all sequences, so the next Generate returns the start value again.
// The definitions are kept.
func (s *Sequences) Reset() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, seq := range s.sequences {
		seq.calls.Store(0)
	}
}
