package afactory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/tagfactory/alog"
)

const instrumentationName = "tagfactory.afactory"

// RegistryOpt allows to initialise a Registry with custom options.
type RegistryOpt func(reg *Registry)

// WithSequences lets the Registry use sequences owned by the caller,
// e.g. to share them between multiple registries.
func WithSequences(sequences *Sequences) RegistryOpt {
	return func(reg *Registry) {
		reg.sequences = sequences
	}
}

// WithFakerSeed seeds the faker used by Fake, so generated values are reproducible.
// A seed of 0 uses a random seed.
func WithFakerSeed(seed int64) RegistryOpt {
	return func(reg *Registry) {
		reg.faker = gofakeit.New(seed)
	}
}

// WithLogger sets the logger. Definitions and builds are logged
// with alog.LevelInfo, resolved attributes and hooks with alog.LevelDebug.
func WithLogger(logger alog.Logger) RegistryOpt {
	return func(reg *Registry) {
		reg.logger = logger
	}
}

// WithTracerProvider traces every build.
func WithTracerProvider(tp trace.TracerProvider) RegistryOpt {
	return func(reg *Registry) {
		reg.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider counts every build and measures its duration.
func WithMeterProvider(mp metric.MeterProvider) RegistryOpt {
	return func(reg *Registry) {
		reg.meter = mp.Meter(instrumentationName)
	}
}

// NewRegistry returns an empty Registry.
// Without options, it uses fresh sequences starting at DefaultSequenceStart
// and does not log, trace, or meter.
func NewRegistry(opts ...RegistryOpt) *Registry {
	reg := &Registry{
		mu:        sync.RWMutex{},
		templates: map[string]definition{},
		sequences: NewSequences(DefaultSequenceStart),
		faker:     gofakeit.New(0),
		logger:    alog.NewNoop(),
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:     metricnoop.NewMeterProvider().Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(reg)
	}

	reg.builds, _ = reg.meter.Int64Counter("afactory_builds",
		metric.WithDescription("number of fixtures built"))
	reg.duration, _ = reg.meter.Float64Histogram("afactory_build_duration_seconds",
		metric.WithDescription("duration of a fixture build, including persistence and hooks"))

	return reg
}

// Registry holds the templates fixtures are built from.
// Templates are defined once, usually at the start of a test suite,
// and can then be built from as often as required.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]definition

	sequences *Sequences
	faker     *gofakeit.Faker

	logger   alog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	builds   metric.Int64Counter
	duration metric.Float64Histogram
}

// definition hides the entity type of a Template, so all templates fit into one map.
type definition interface {
	attributes(ctx context.Context, reg *Registry, cfg buildConfig) (Attrs, error)
}

// Sequences returns the sequences used by the Registry.
func (reg *Registry) Sequences() *Sequences {
	return reg.sequences
}

// Reset rewinds all sequences of the Registry. Call it between test runs.
func (reg *Registry) Reset() {
	reg.sequences.Reset()
}

// Templates returns the names of all defined templates in alphabetical order.
func (reg *Registry) Templates() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.templates))
	for name := range reg.templates {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Define registers the Template under its name.
func Define[T any](reg *Registry, tmpl Template[T]) error {
	if err := validate(tmpl); err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.templates[tmpl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, tmpl.Name)
	}

	reg.templates[tmpl.Name] = &tmpl

	reg.logger.Log(context.Background(), alog.LevelInfo, "template defined",
		slog.String("template", tmpl.Name),
		slog.Int("attributes", len(tmpl.Attributes)),
		slog.Int("traits", len(tmpl.Traits)),
	)

	return nil
}

// MustDefine is like Define but panics, if the template cannot be defined.
// Use it to set up a test suite, where a failing definition is fatal anyway.
func MustDefine[T any](reg *Registry, tmpl Template[T]) {
	if err := Define(reg, tmpl); err != nil {
		panic("afactory: " + err.Error())
	}
}

func validate[T any](tmpl Template[T]) error {
	if tmpl.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}

	if tmpl.Persister == nil {
		return fmt.Errorf("%w: %s has no persister", ErrInvalidTemplate, tmpl.Name)
	}

	if err := validateAttributes(tmpl.Name, tmpl.Attributes); err != nil {
		return err
	}

	traits := map[string]struct{}{}

	for _, trait := range tmpl.Traits {
		if trait.Name == "" {
			return fmt.Errorf("%w: %s has a trait without name", ErrInvalidTemplate, tmpl.Name)
		}

		if _, exists := traits[trait.Name]; exists {
			return fmt.Errorf("%w: %s has trait %s twice", ErrInvalidTemplate, tmpl.Name, trait.Name)
		}

		traits[trait.Name] = struct{}{}

		if err := validateAttributes(tmpl.Name+"."+trait.Name, trait.Attributes); err != nil {
			return err
		}
	}

	return nil
}

func validateAttributes(owner string, attributes []Attribute) error {
	names := map[string]struct{}{}

	for _, attr := range attributes {
		if attr.Name == "" || attr.Generate == nil {
			return fmt.Errorf("%w: %s has an attribute without name or generator", ErrInvalidTemplate, owner)
		}

		if _, exists := names[attr.Name]; exists {
			return fmt.Errorf("%w: %s has attribute %s twice", ErrInvalidTemplate, owner, attr.Name)
		}

		names[attr.Name] = struct{}{}
	}

	return nil
}

func lookup[T any](reg *Registry, name string) (*Template[T], error) {
	reg.mu.RLock()
	def, exists := reg.templates[name]
	reg.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	tmpl, ok := def.(*Template[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s does not build %T", ErrTypeMismatch, name, *new(T))
	}

	return tmpl, nil
}

func unknownTraitError(template string, trait string) error {
	return fmt.Errorf("%w: %s has no trait %s", ErrUnknownTrait, template, trait)
}

func (reg *Registry) startBuild(ctx context.Context, template string, cfg buildConfig) (context.Context, trace.Span) {
	return reg.tracer.Start(ctx, "build", trace.WithAttributes(
		attribute.String("template", template),
		attribute.StringSlice("traits", cfg.traits),
	))
}

func (reg *Registry) endBuild(ctx context.Context, span trace.Span, template string, start time.Time, err error) {
	defer span.End()

	status := "success"
	if err != nil {
		status = "failure"

		span.SetStatus(codes.Error, err.Error())
	}

	opt := metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("status", status),
	)

	reg.builds.Add(ctx, 1, opt)
	reg.duration.Record(ctx, time.Since(start).Seconds(), opt)
}
