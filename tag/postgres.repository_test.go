//go:build integration

package tag_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/tagfactory/afactory"
	"github.com/go-arrower/tagfactory/search"
	"github.com/go-arrower/tagfactory/tag"
	"github.com/go-arrower/tagfactory/tests"
)

var pgHandler *tests.PostgresDocker

func TestMain(m *testing.M) {
	pgHandler = tests.GetPostgresDocker()

	//
	// Run tests
	code := m.Run()

	pgHandler.Cleanup()
	os.Exit(code)
}

func TestPostgresRepository_Create(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()
		repo := tag.NewPostgresRepository(pg.PGx)

		id, err := repo.NextID(ctx)
		require.NoError(t, err)

		got, err := repo.Create(ctx, tag.Tag{ID: id, Name: "golang", Supported: true})
		assert.NoError(t, err)
		assert.False(t, got.CreatedAt.IsZero(), "database sets created_at")

		stored, err := repo.FindByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, got.Name, stored.Name)
		assert.True(t, stored.Supported)
	})

	t.Run("unique name", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase("testdata/fixtures/tags.yaml")
		repo := tag.NewPostgresRepository(pg.PGx)

		_, err := repo.Create(ctx, tag.Tag{ID: "1", Name: "golang"})
		assert.ErrorIs(t, err, tag.ErrPersistence)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()
		repo := tag.NewPostgresRepository(pg.PGx)

		_, err := repo.Create(ctx, tag.Tag{ID: "1"})
		assert.ErrorIs(t, err, tag.ErrInvalid)
	})
}

func TestPostgresRepository_FindByID(t *testing.T) {
	t.Parallel()

	pg := pgHandler.NewTestDatabase("testdata/fixtures/tags.yaml")
	repo := tag.NewPostgresRepository(pg.PGx)

	got, err := repo.FindByID(ctx, "7b8c4f8e-4d6b-4d0e-9d3c-1f6f9c2a1b02")
	assert.NoError(t, err)
	assert.Equal(t, "cobol", got.Name)
	assert.False(t, got.Supported)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, tag.ErrNotFound)
}

func TestPostgresRepository_All(t *testing.T) {
	t.Parallel()

	pg := pgHandler.NewTestDatabase("testdata/fixtures/tags.yaml")
	repo := tag.NewPostgresRepository(pg.PGx)

	all, err := repo.All(ctx)
	assert.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "golang", all[0].Name)
	assert.Equal(t, "cobol", all[1].Name)
}

func TestFactory_Postgres(t *testing.T) {
	t.Parallel()

	pg := pgHandler.NewTestDatabase()
	repo := tag.NewPostgresRepository(pg.PGx)
	idx := search.NewPostgresIndex(pg.PGx)

	reg := afactory.Test(t)
	require.NoError(t, tag.DefineFactory(reg, repo, idx))

	got, err := afactory.Build[tag.Tag](ctx, reg, tag.Factory, afactory.WithTraits(tag.TraitSearchIndexed))
	require.NoError(t, err)
	assert.Equal(t, "tag1", got.Name)

	docs, err := idx.Search(ctx, "tag1")
	assert.NoError(t, err)
	assert.Equal(t, []search.Document{got.Document()}, docs)

	_, err = afactory.Build[tag.Tag](ctx, reg, tag.Factory, afactory.With("name", "tag1"))
	assert.ErrorIs(t, err, tag.ErrPersistence)
}

func TestPostgresRepository_SharedDatabase(t *testing.T) {
	t.Parallel()

	repo := tag.NewPostgresRepository(pgHandler.PGx())

	_, err := repo.Create(ctx, tag.Tag{ID: "leftover", Name: "leftover"})
	require.NoError(t, err)

	pgHandler.PrepareDatabase("testdata/fixtures/tags.yaml")

	all, err := repo.All(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2, "tables are truncated before the fixtures are loaded")
}
