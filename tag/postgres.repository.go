package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*PostgresRepository)(nil)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals // squirrel recommends this

var columns = []string{"id", "name", "supported", "created_at"} //nolint:gochecknoglobals // used by all queries

// NewPostgresRepository returns a Repository storing tags in the table `tags`.
func NewPostgresRepository(pgx *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{PGx: pgx}
}

type PostgresRepository struct {
	PGx *pgxpool.Pool
}

func (repo *PostgresRepository) NextID(_ context.Context) (ID, error) {
	return ID(uuid.New().String()), nil
}

func (repo *PostgresRepository) Create(ctx context.Context, tag Tag) (Tag, error) {
	if err := tag.Validate(); err != nil {
		return Tag{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	query := psql.Insert("tags").Suffix("RETURNING created_at")

	if tag.CreatedAt.IsZero() {
		query = query.Columns("id", "name", "supported").Values(tag.ID, tag.Name, tag.Supported)
	} else {
		query = query.Columns(columns...).Values(tag.ID, tag.Name, tag.Supported, tag.CreatedAt)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return Tag{}, fmt.Errorf("%w: could not build query: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	if err = pgxscan.Get(ctx, repo.PGx, &tag.CreatedAt, sql, args...); err != nil {
		return Tag{}, fmt.Errorf("%w: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	return tag, nil
}

func (repo *PostgresRepository) FindByID(ctx context.Context, id ID) (Tag, error) {
	sql, args, err := psql.Select(columns...).From("tags").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return Tag{}, fmt.Errorf("%w: could not build query: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	var tag Tag

	err = pgxscan.Get(ctx, repo.PGx, &tag, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tag{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return Tag{}, fmt.Errorf("%w: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	return tag, nil
}

// All returns all tags in the order they got created.
func (repo *PostgresRepository) All(ctx context.Context) ([]Tag, error) {
	sql, args, err := psql.Select(columns...).From("tags").OrderBy("created_at", "name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: could not build query: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	tags := []Tag{}

	if err = pgxscan.Select(ctx, repo.PGx, &tags, sql, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err) //nolint:errorlint // prevent err in api
	}

	return tags, nil
}
