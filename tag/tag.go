// Package tag is the Tag entity together with its fixture factory.
package tag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/go-arrower/tagfactory/search"
)

// DocumentKind identifies tags in the search index.
const DocumentKind = "tag"

var (
	ErrPersistence = errors.New("tag persistence failed")
	ErrNotFound    = errors.New("tag not found")
	ErrInvalid     = errors.New("invalid tag")
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct info

type ID string

// Tag labels content. Its Name is unique, Supported tags are offered for selection.
type Tag struct {
	ID        ID        `factory:"id"         db:"id"         validate:"required"`
	Name      string    `factory:"name"       db:"name"       validate:"required,max=255"`
	Supported bool      `factory:"supported"  db:"supported"`
	CreatedAt time.Time `factory:"created_at" db:"created_at"`
}

// Validate checks the tag can be stored.
func (t Tag) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err) //nolint:errorlint // prevent validator in api
	}

	return nil
}

// Document returns the searchable representation of the tag.
func (t Tag) Document() search.Document {
	return search.Document{
		Kind:    DocumentKind,
		ID:      string(t.ID),
		Content: t.Name,
	}
}

// IndexInline adds the tag to the index, before returning.
func (t Tag) IndexInline(ctx context.Context, idx search.Indexer) error {
	return idx.IndexInline(ctx, t.Document()) //nolint:wrapcheck // errors of the index are returned unchanged
}
