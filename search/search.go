// Package search indexes entities inline, synchronous to the calling operation.
// There is no queue: when IndexInline returns without error, the document is searchable.
package search

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

var (
	ErrIndexing        = errors.New("indexing failed")
	ErrInvalidDocument = errors.New("invalid document")
)

// Document is the searchable representation of an entity.
// Kind and ID together identify the entity, indexing it again replaces its document.
type Document struct {
	Kind    string `db:"kind"`
	ID      string `db:"id"`
	Content string `db:"content"`
}

func (d Document) validate() error {
	if d.Kind == "" || d.ID == "" {
		return ErrInvalidDocument
	}

	return nil
}

// Indexer adds documents to a search index.
type Indexer interface {
	IndexInline(ctx context.Context, doc Document) error
}

// Index is an Indexer that can also be queried.
type Index interface {
	Indexer
	Search(ctx context.Context, query string) ([]Document, error)
}

// tokenize splits content into lower case words.
func tokenize(content string) []string {
	return strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
