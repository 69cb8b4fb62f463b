package tag_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/tagfactory/afactory"
	"github.com/go-arrower/tagfactory/alog"
	"github.com/go-arrower/tagfactory/search"
	"github.com/go-arrower/tagfactory/tag"
)

var (
	ctx         = context.Background()
	namePattern = regexp.MustCompile(`^tag\d+$`)
)

type fixtures struct {
	reg  *afactory.Registry
	repo *tag.MemoryRepository
	idx  *search.MemoryIndex
}

func newFixtures(t *testing.T, opts ...afactory.RegistryOpt) fixtures {
	t.Helper()

	f := fixtures{
		reg:  afactory.Test(t, opts...),
		repo: tag.NewMemoryRepository(),
		idx:  search.NewMemoryIndex(),
	}

	require.NoError(t, tag.DefineFactory(f.reg, f.repo, f.idx))

	return f
}

func TestDefineFactory(t *testing.T) {
	t.Parallel()

	t.Run("define twice", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		err := tag.DefineFactory(f.reg, f.repo, f.idx)
		assert.ErrorIs(t, err, afactory.ErrDuplicateTemplate)
	})

	t.Run("shared sequences", func(t *testing.T) {
		t.Parallel()

		seqs := afactory.NewSequences(afactory.DefaultSequenceStart)
		f0 := newFixtures(t, afactory.WithSequences(seqs))
		f1 := newFixtures(t, afactory.WithSequences(seqs))

		t0, err := afactory.Build[tag.Tag](ctx, f0.reg, tag.Factory)
		require.NoError(t, err)
		t1, err := afactory.Build[tag.Tag](ctx, f1.reg, tag.Factory)
		require.NoError(t, err)

		assert.NotEqual(t, t0.Name, t1.Name)
	})
}

func TestFactory(t *testing.T) {
	t.Parallel()

	t.Run("default tag", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		got, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory)
		require.NoError(t, err)

		assert.True(t, got.Supported)
		assert.Regexp(t, namePattern, got.Name)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.CreatedAt.IsZero())

		stored, err := f.repo.FindByID(ctx, got.ID)
		assert.NoError(t, err)
		assert.Equal(t, got, stored)
		assert.Equal(t, 0, f.idx.Count(), "not indexed without trait")
	})

	t.Run("names never collide", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		tags, err := afactory.BuildList[tag.Tag](ctx, f.reg, 20, tag.Factory)
		require.NoError(t, err)

		names := map[string]struct{}{}
		for _, tg := range tags {
			names[tg.Name] = struct{}{}
		}

		assert.Len(t, names, 20)
		assert.Equal(t, "tag1", tags[0].Name)
		assert.Equal(t, "tag20", tags[19].Name)
	})

	t.Run("search indexed", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		plain, _ := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory)
		indexed, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithTraits(tag.TraitSearchIndexed))
		require.NoError(t, err)

		assert.Equal(t, plain.Supported, indexed.Supported)
		assert.Regexp(t, namePattern, indexed.Name)
		assert.Equal(t, 1, f.idx.Calls(tag.DocumentKind, string(indexed.ID)))
		assert.Equal(t, 0, f.idx.Calls(tag.DocumentKind, string(plain.ID)))

		docs, _ := f.idx.Search(ctx, indexed.Name)
		assert.Equal(t, []search.Document{indexed.Document()}, docs)
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		got, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithTraits(tag.TraitUnsupported))
		require.NoError(t, err)
		assert.False(t, got.Supported)
	})

	t.Run("override supported regardless of traits", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		orders := [][]string{
			{},
			{tag.TraitSearchIndexed},
			{tag.TraitSearchIndexed, tag.TraitUnsupported},
			{tag.TraitUnsupported, tag.TraitSearchIndexed},
		}

		for _, traits := range orders {
			got, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory,
				afactory.WithTraits(traits...),
				afactory.WithOverrides(afactory.Attrs{"supported": false}),
			)
			require.NoError(t, err)
			assert.False(t, got.Supported, traits)
		}
	})

	t.Run("override everything", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)
		createdAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

		got, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithOverrides(afactory.Attrs{
			"id":         tag.ID("golang"),
			"name":       "Go",
			"created_at": createdAt,
		}))
		require.NoError(t, err)

		assert.Equal(t, tag.Tag{ID: "golang", Name: "Go", Supported: true, CreatedAt: createdAt}, got)
	})

	t.Run("unknown trait", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		_, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithTraits("nonexistent"))
		assert.ErrorIs(t, err, afactory.ErrUnknownTrait)

		all, _ := f.repo.All(ctx)
		assert.Empty(t, all, "nothing persisted")
		assert.Equal(t, 0, f.idx.Count(), "nothing indexed")
	})

	t.Run("persistence fails", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		_, _ = afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.With("name", "golang"))

		_, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory,
			afactory.With("name", "golang"),
			afactory.WithTraits(tag.TraitSearchIndexed),
		)
		assert.ErrorIs(t, err, tag.ErrPersistence)
		assert.Equal(t, 0, f.idx.Count(), "not indexed if not persisted")
	})

	t.Run("invalid tag", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		_, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.With("name", ""))
		assert.ErrorIs(t, err, tag.ErrPersistence)
		assert.ErrorIs(t, err, tag.ErrInvalid)
	})

	t.Run("indexing fails", func(t *testing.T) {
		t.Parallel()

		errDown := errors.New("index down")
		f := newFixtures(t)
		f.idx.Err = errDown

		_, err := afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithTraits(tag.TraitSearchIndexed))
		assert.ErrorIs(t, err, search.ErrIndexing)
		assert.ErrorIs(t, err, errDown)
	})

	t.Run("attributes", func(t *testing.T) {
		t.Parallel()

		f := newFixtures(t)

		attrs, err := afactory.Attributes(ctx, f.reg, tag.Factory)
		require.NoError(t, err)
		assert.Equal(t, afactory.Attrs{"name": "tag1", "supported": true}, attrs)

		all, _ := f.repo.All(ctx)
		assert.Empty(t, all)
	})

	t.Run("logged", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(t)
		f := newFixtures(t, afactory.WithLogger(logger))

		_, _ = afactory.Build[tag.Tag](ctx, f.reg, tag.Factory, afactory.WithTraits(tag.TraitSearchIndexed))

		logger.Contains("template=tag")
		logger.Contains("trait=search_indexed")
	})
}
