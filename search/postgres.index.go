package search

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Index = (*PostgresIndex)(nil)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals // squirrel recommends this

// NewPostgresIndex returns an index using the full text search of PostgreSQL.
// It expects the table search_documents, see the migrations of package postgres.
func NewPostgresIndex(pgx *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{PGx: pgx}
}

// PostgresIndex stores documents in the table search_documents.
// The column `document` is a generated tsvector, so a document is searchable
// as soon as IndexInline returns.
type PostgresIndex struct {
	PGx *pgxpool.Pool
}

func (idx *PostgresIndex) IndexInline(ctx context.Context, doc Document) error {
	if err := doc.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexing, err)
	}

	sql, args, err := psql.Insert("search_documents").
		Columns("kind", "id", "content").
		Values(doc.Kind, doc.ID, doc.Content).
		Suffix("ON CONFLICT (kind, id) DO UPDATE SET content = EXCLUDED.content, indexed_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: could not build query: %v", ErrIndexing, err) //nolint:errorlint // prevent err in api
	}

	if _, err = idx.PGx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexing, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

func (idx *PostgresIndex) Search(ctx context.Context, query string) ([]Document, error) {
	sql, args, err := psql.Select("kind", "id", "content").
		From("search_documents").
		Where("document @@ plainto_tsquery('simple', ?)", query).
		OrderBy("indexed_at", "kind", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	docs := []Document{}

	if err = pgxscan.Select(ctx, idx.PGx, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("could not search: %w", err)
	}

	return docs, nil
}
