package search

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty in memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		mu:    sync.Mutex{},
		docs:  map[key]Document{},
		terms: map[string]map[key]struct{}{},
		calls: map[key]int{},
	}
}

// MemoryIndex is an inverted index kept in memory.
// It records every call of IndexInline, so tests can assert on them.
type MemoryIndex struct {
	mu    sync.Mutex
	docs  map[key]Document
	terms map[string]map[key]struct{}
	calls map[key]int
	order []key

	// Err is returned by IndexInline, if set. Use it to simulate a failing index.
	Err error
}

type key struct {
	kind string
	id   string
}

func (idx *MemoryIndex) IndexInline(_ context.Context, doc Document) error {
	if err := doc.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexing, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	k := key{kind: doc.Kind, id: doc.ID}
	idx.calls[k]++

	if idx.Err != nil {
		return fmt.Errorf("%w: %w", ErrIndexing, idx.Err)
	}

	if old, exists := idx.docs[k]; exists {
		for _, term := range tokenize(old.Content) {
			delete(idx.terms[term], k)
		}
	} else {
		idx.order = append(idx.order, k)
	}

	idx.docs[k] = doc

	for _, term := range tokenize(doc.Content) {
		if idx.terms[term] == nil {
			idx.terms[term] = map[key]struct{}{}
		}

		idx.terms[term][k] = struct{}{}
	}

	return nil
}

// Search returns all documents containing every word of the query,
// in the order they got indexed first.
func (idx *MemoryIndex) Search(_ context.Context, query string) ([]Document, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	terms := tokenize(query)
	result := []Document{}

	if len(terms) == 0 {
		return result, nil
	}

	for _, k := range idx.order {
		matches := !slices.ContainsFunc(terms, func(term string) bool {
			_, ok := idx.terms[term][k]
			return !ok
		})

		if matches {
			result = append(result, idx.docs[k])
		}
	}

	return result, nil
}

// Calls returns how often IndexInline was called for the entity, including failed calls.
func (idx *MemoryIndex) Calls(kind string, id string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.calls[key{kind: kind, id: id}]
}

// Count returns the number of indexed documents.
func (idx *MemoryIndex) Count() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.docs)
}
