package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-arrower/tagfactory/afactory"
	"github.com/go-arrower/tagfactory/search"
)

const (
	// Factory is the name of the template building tags.
	Factory = "tag"

	// TraitSearchIndexed indexes the tag inline, after it got stored.
	TraitSearchIndexed = "search_indexed"

	// TraitUnsupported builds a tag that is not supported.
	TraitUnsupported = "unsupported"

	// NameSequence generates the unique names tag1, tag2, ...
	NameSequence = "name"
)

// DefineFactory registers the tag template with reg.
// Tags are stored in repo, the trait search_indexed indexes them in idx.
//
// If the sequence for the names is already defined, e.g. because the sequences
// are shared between registries, the existing sequence is used.
func DefineFactory(reg *afactory.Registry, repo Repository, idx search.Indexer) error {
	err := reg.Sequences().Define(NameSequence, afactory.Prefix("tag"))
	if err != nil && !errors.Is(err, afactory.ErrDuplicateSequence) {
		return fmt.Errorf("could not define tag factory: %w", err)
	}

	return afactory.Define(reg, afactory.Template[Tag]{
		Name: Factory,
		Attributes: []afactory.Attribute{
			{Name: "name", Generate: afactory.Sequence(NameSequence)},
			{Name: "supported", Generate: afactory.Static(true)},
		},
		Traits: []afactory.Trait[Tag]{
			{
				Name: TraitSearchIndexed,
				OnCreate: func(ctx context.Context, tag Tag) error {
					return tag.IndexInline(ctx, idx)
				},
			},
			{
				Name:       TraitUnsupported,
				Attributes: []afactory.Attribute{{Name: "supported", Generate: afactory.Static(false)}},
			},
		},
		Persister: Persister(repo),
	})
}

// Persister constructs a Tag from the resolved attributes and stores it in repo.
// If the attributes have no id, the repository generates one.
func Persister(repo Repository) afactory.Persister[Tag] {
	return afactory.PersistFunc[Tag](func(ctx context.Context, attrs afactory.Attrs) (Tag, error) {
		var tag Tag
		if err := attrs.Decode(&tag); err != nil {
			return Tag{}, err //nolint:wrapcheck // already an afactory error
		}

		if tag.ID == "" {
			id, err := repo.NextID(ctx)
			if err != nil {
				return Tag{}, fmt.Errorf("%w: could not get id: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
			}

			tag.ID = id
		}

		return repo.Create(ctx, tag) //nolint:wrapcheck // errors of the repository are returned unchanged
	})
}
