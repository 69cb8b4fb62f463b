// Package tagfactory wires the tag fixture factory with its collaborators.
//
// Depending on the configuration, fixtures are stored in memory or in PostgreSQL:
//
//	c := tagfactory.NewTest(t)
//	tg, err := c.Tag(ctx, tag.TraitSearchIndexed)
package tagfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/tagfactory/afactory"
	"github.com/go-arrower/tagfactory/alog"
	"github.com/go-arrower/tagfactory/postgres"
	"github.com/go-arrower/tagfactory/search"
	"github.com/go-arrower/tagfactory/tag"
)

var ErrInitialisationFailed = errors.New("initialisation failed")

// Container holds the registry with all factories defined,
// together with the repository and the index the factories write to.
type Container struct {
	Config   Config
	Logger   alog.Logger
	Registry *afactory.Registry

	Tags  tag.Repository
	Index search.Index

	// PG is nil, if the fixtures are kept in memory.
	PG *postgres.Handler
}

type Option func(*options)

type options struct {
	logger         alog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	sequences      *afactory.Sequences
}

// WithLogger sets the logger. Default is a logger with the configured level.
func WithLogger(logger alog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithSequences shares the sequences with other containers,
// so their fixtures do not collide in the same database.
func WithSequences(sequences *afactory.Sequences) Option {
	return func(o *options) {
		o.sequences = sequences
	}
}

// New returns a Container with all factories defined.
// If conf.Postgres is enabled, it connects to the database and migrates it.
func New(ctx context.Context, conf Config, opts ...Option) (*Container, error) {
	o := &options{
		logger:         alog.New(alog.WithLevel(conf.Log.Level)),
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		sequences:      afactory.NewSequences(conf.Factory.SequenceStart),
	}

	for _, opt := range opts {
		opt(o)
	}

	c := &Container{
		Config: conf,
		Logger: o.logger,
	}

	if conf.Postgres.Enabled {
		pg, err := postgres.ConnectAndMigrate(ctx, postgres.Config{
			Migrations: nil,
			User:       conf.Postgres.User,
			Password:   conf.Postgres.Password,
			Database:   conf.Postgres.Database,
			SSLMode:    conf.Postgres.SSLMode,
			Host:       conf.Postgres.Host,
			Port:       conf.Postgres.Port,
			MaxConns:   conf.Postgres.MaxConns,
		}, o.tracerProvider)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitialisationFailed, err)
		}

		c.PG = pg
		c.Tags = tag.NewPostgresRepository(pg.PGx)
		c.Index = search.NewPostgresIndex(pg.PGx)
	} else {
		c.Tags = tag.NewMemoryRepository()
		c.Index = search.NewMemoryIndex()
	}

	c.Registry = afactory.NewRegistry(
		afactory.WithSequences(o.sequences),
		afactory.WithFakerSeed(conf.Factory.FakerSeed),
		afactory.WithLogger(o.logger),
		afactory.WithTracerProvider(o.tracerProvider),
		afactory.WithMeterProvider(o.meterProvider),
	)

	if err := tag.DefineFactory(c.Registry, c.Tags, c.Index); err != nil {
		_ = c.Shutdown(ctx)
		return nil, fmt.Errorf("%w: %w", ErrInitialisationFailed, err)
	}

	c.Logger.Log(ctx, alog.LevelInfo, "factories ready",
		slog.String("environment", string(conf.Environment)),
		slog.Any("templates", c.Registry.Templates()),
		slog.Bool("postgres", conf.Postgres.Enabled),
	)

	return c, nil
}

// NewTest returns a Container keeping all fixtures in memory.
// The sequences are reset, once the test and its subtests finished.
func NewTest(t *testing.T, opts ...Option) *Container {
	if t == nil {
		panic("t is nil")
	}

	t.Helper()

	opts = append([]Option{WithLogger(alog.NewNoop())}, opts...)

	c, err := New(context.Background(), DefaultConfig(), opts...)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(c.Registry.Reset)

	return c
}

// Tag builds a persisted tag with the given traits.
func (c *Container) Tag(ctx context.Context, traits ...string) (tag.Tag, error) {
	return afactory.Build[tag.Tag](ctx, c.Registry, tag.Factory, afactory.WithTraits(traits...))
}

// Shutdown closes the database connection, if there is one.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.PG == nil {
		return nil
	}

	return c.PG.Shutdown(ctx) //nolint:wrapcheck // postgres errors are descriptive already
}
