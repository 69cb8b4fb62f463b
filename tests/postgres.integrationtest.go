//go:build integration

package tests

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-testfixtures/testfixtures/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khaiql/dbcleaner"
	"github.com/khaiql/dbcleaner/engine"
	"github.com/ory/dockertest/v3"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/tagfactory/postgres"
)

//nolint:gochecknoglobals // the variables are used on purpose for a singleton pattern.
var (
	muPostgres        = &sync.Mutex{}
	singletonPostgres *PostgresDocker
)

//nolint:gochecknoglobals,exhaustruct // only set required configuration
var (
	defaultPGConf = postgres.Config{
		User:     "tagfactory",
		Password: "secret",
		Database: "tagfactory_test",
		Host:     "localhost",
		Port:     5432, //nolint:mnd
		MaxConns: 10,   //nolint:mnd
	}

	defaultPGRunOptions = &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + defaultPGConf.User,
			"POSTGRES_PASSWORD=" + defaultPGConf.Password,
			"POSTGRES_DB=" + defaultPGConf.Database,
		},
		Cmd: []string{"-c", "max_connections=500"},
	}
)

// GetPostgresDocker returns a fully connected and migrated database in a docker container.
// Subsequent calls return the same container, so integration tests running
// in parallel do not spin up multiple containers.
// In case of an issue, it panics.
func GetPostgresDocker() *PostgresDocker {
	muPostgres.Lock()
	defer muPostgres.Unlock()

	if singletonPostgres != nil {
		return singletonPostgres
	}

	var pgHandler *postgres.Handler

	retryFunc := func(resource *dockertest.Resource) func() error {
		conf := defaultPGConf
		conf.Port, _ = strconv.Atoi(resource.GetPort("5432/tcp"))

		return func() error {
			handler, err := postgres.ConnectAndMigrate(context.Background(), conf, noop.NewTracerProvider())
			if err != nil {
				return err //nolint:wrapcheck // pool.Retry only cares about success
			}

			pgHandler = handler

			return nil
		}
	}

	options := *defaultPGRunOptions
	options.Name = fmt.Sprintf("tagfactory-testing-postgres-%d", rand.IntN(1000)) //nolint:gosec,mnd // prevent collisions only

	cleanup, err := StartDockerContainer(&options, retryFunc)
	if err != nil {
		panic(err)
	}

	singletonPostgres = &PostgresDocker{
		pg:            pgHandler,
		cleanupDocker: cleanup,
	}

	return singletonPostgres
}

type PostgresDocker struct {
	pg            *postgres.Handler
	cleanupDocker func() error
}

const commonFixture = "testdata/fixtures/_common.yaml"

// NewTestDatabase creates a new database, connects to it, and applies all migrations.
// Afterwards, it loads all fixtures files.
// If there is a file named `testdata/fixtures/_common.yaml`, it's always loaded first.
// Each call returns its own database, so tests using it can run in parallel.
// In case of an issue, it panics.
func (pd *PostgresDocker) NewTestDatabase(files ...string) *postgres.Handler {
	newDB := randomDatabaseName()

	if _, err := pd.pg.PGx.Exec(context.Background(), "CREATE DATABASE "+newDB); err != nil {
		panic(err)
	}

	conf := pd.pg.Config
	conf.Database = newDB

	handler, err := postgres.ConnectAndMigrate(context.Background(), conf, noop.NewTracerProvider())
	if err != nil {
		panic(err)
	}

	loadFixtures(handler, files)

	return handler
}

// PrepareDatabase truncates all tables of the shared database and loads the fixture files.
// If there is a file named `testdata/fixtures/_common.yaml`, it's always loaded first.
func (pd *PostgresDocker) PrepareDatabase(files ...string) {
	c := pd.pg.Config
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)

	cleaner := dbcleaner.New()
	cleaner.SetEngine(engine.NewPostgresEngine(dsn))

	var tables []string

	_ = pgxscan.Select(context.Background(), pd.PGx(), &tables,
		`SELECT table_schema || '.' || table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_type = 'BASE TABLE'
		  AND table_name <> 'schema_migrations'`,
	)

	cleaner.Clean(tables...)
	_ = cleaner.Close()

	loadFixtures(pd.pg, files)
}

func loadFixtures(pg *postgres.Handler, files []string) {
	if _, err := os.Stat(commonFixture); errors.Is(err, nil) {
		files = append([]string{commonFixture}, files...)
	}

	if len(files) == 0 {
		return
	}

	fixtures, err := testfixtures.New(
		testfixtures.Database(pg.DB),
		testfixtures.Dialect("postgres"),
		testfixtures.FilesMultiTables(files...),
		testfixtures.DangerousSkipTestDatabaseCheck(),
	)
	if err != nil {
		panic(err)
	}

	if err := fixtures.Load(); err != nil {
		panic(err)
	}
}

// Cleanup shuts down the database connection, stops, and removes the docker container.
// It cannot be deferred in TestMain, if it exits with os.Exit(code), as that does not execute the defer stack.
// In case of an issue, it panics.
func (pd *PostgresDocker) Cleanup() {
	if err := pd.pg.Shutdown(context.Background()); err != nil {
		panic(err)
	}

	if err := pd.cleanupDocker(); err != nil {
		panic(err)
	}
}

// PGx returns the pgx connection if you need to access the database directly.
func (pd *PostgresDocker) PGx() *pgxpool.Pool {
	return pd.pg.PGx
}

func randomDatabaseName() string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz")

	const n = 16
	b := make([]rune, n)

	for i := range b {
		b[i] = letters[rand.IntN(len(letters))] //nolint:gosec // used for name, not security
	}

	return string(b) + "_test"
}
