package afactory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-arrower/tagfactory/alog"
)

// BuildOpt changes how a single entity is built.
type BuildOpt func(cfg *buildConfig)

// WithTraits applies the named traits, in the given order.
// A trait given more than once is applied once, at its first position.
func WithTraits(names ...string) BuildOpt {
	return func(cfg *buildConfig) {
		cfg.traits = append(cfg.traits, names...)
	}
}

// WithOverrides sets attributes explicitly. They take precedence
// over the Template and all traits, their generators are not called.
func WithOverrides(attrs Attrs) BuildOpt {
	return func(cfg *buildConfig) {
		for k, v := range attrs {
			cfg.overrides[k] = v
		}
	}
}

// With overrides a single attribute, see WithOverrides.
func With(name string, value any) BuildOpt {
	return func(cfg *buildConfig) {
		cfg.overrides[name] = value
	}
}

type buildConfig struct {
	traits    []string
	overrides Attrs
}

func newBuildConfig(opts []BuildOpt) buildConfig {
	cfg := buildConfig{
		traits:    []string{},
		overrides: Attrs{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Build creates a new entity from the named Template:
//  1. all traits are checked to exist, before anything else happens;
//  2. the attributes are resolved: Template, traits in order, overrides;
//  3. the Persister of the Template constructs and stores the entity;
//  4. the OnCreate hooks of the traits are called, in order.
//
// Errors of the Persister and the hooks are returned unchanged.
// The first failing hook stops all hooks after it.
func Build[T any](ctx context.Context, reg *Registry, name string, opts ...BuildOpt) (T, error) { //nolint:ireturn // valid use of generics
	cfg := newBuildConfig(opts)

	ctx, span := reg.startBuild(ctx, name, cfg)
	start := time.Now()

	entity, err := build[T](ctx, reg, name, cfg)
	reg.endBuild(ctx, span, name, start, err)

	return entity, err
}

// BuildList calls Build n times with the same options and stops at the first error.
func BuildList[T any](ctx context.Context, reg *Registry, n int, name string, opts ...BuildOpt) ([]T, error) {
	entities := make([]T, 0, n)

	for range n {
		entity, err := Build[T](ctx, reg, name, opts...)
		if err != nil {
			return entities, err
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

// Attributes resolves the attributes the same way Build does,
// without persisting anything and without calling any hooks.
func Attributes(ctx context.Context, reg *Registry, name string, opts ...BuildOpt) (Attrs, error) {
	reg.mu.RLock()
	def, exists := reg.templates[name]
	reg.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	return def.attributes(ctx, reg, newBuildConfig(opts))
}

func build[T any](ctx context.Context, reg *Registry, name string, cfg buildConfig) (T, error) { //nolint:ireturn // valid use of generics
	tmpl, err := lookup[T](reg, name)
	if err != nil {
		return *new(T), err
	}

	traits, err := tmpl.traits(cfg.traits)
	if err != nil {
		return *new(T), err
	}

	attrs, err := resolve(ctx, reg, tmpl.Attributes, traits, cfg.overrides)
	if err != nil {
		return *new(T), err
	}

	reg.logger.Log(ctx, alog.LevelDebug, "attributes resolved",
		slog.String("template", name),
		slog.Any("attributes", attrs),
	)

	entity, err := tmpl.Persister.Persist(ctx, attrs)
	if err != nil {
		return *new(T), err //nolint:wrapcheck // errors of the persister are returned unchanged
	}

	for _, trait := range traits {
		if trait.OnCreate == nil {
			continue
		}

		reg.logger.Log(ctx, alog.LevelDebug, "run hook",
			slog.String("template", name),
			slog.String("trait", trait.Name),
		)

		if err := trait.OnCreate(ctx, entity); err != nil {
			return *new(T), err //nolint:wrapcheck // errors of the hooks are returned unchanged
		}
	}

	reg.logger.Log(ctx, alog.LevelInfo, "fixture built",
		slog.String("template", name),
		slog.Any("traits", cfg.traits),
	)

	return entity, nil
}

func (tmpl *Template[T]) attributes(ctx context.Context, reg *Registry, cfg buildConfig) (Attrs, error) {
	traits, err := tmpl.traits(cfg.traits)
	if err != nil {
		return nil, err
	}

	return resolve(ctx, reg, tmpl.Attributes, traits, cfg.overrides)
}

// resolve evaluates the winning generator of every attribute.
// Attributes keep the position of their first declaration,
// attributes only known to a trait are appended in trait order.
// Overridden attributes are not generated at all, so they do not advance any sequence.
// Generators see the overrides and every attribute resolved before them.
func resolve[T any](
	ctx context.Context,
	reg *Registry,
	defaults []Attribute,
	traits []Trait[T],
	overrides Attrs,
) (Attrs, error) {
	order := make([]string, 0, len(defaults))
	generators := make(map[string]Generator, len(defaults))

	overlay := func(attributes []Attribute) {
		for _, attr := range attributes {
			if _, known := generators[attr.Name]; !known {
				order = append(order, attr.Name)
			}

			generators[attr.Name] = attr.Generate
		}
	}

	overlay(defaults)

	for _, trait := range traits {
		overlay(trait.Attributes)
	}

	ev := &Evaluator{
		attrs:     overrides.Clone(),
		sequences: reg.sequences,
		faker:     reg.faker,
	}

	for _, name := range order {
		if _, overridden := overrides[name]; overridden {
			continue
		}

		value, err := generators[name](ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("could not generate attribute %s: %w", name, err)
		}

		ev.attrs[name] = value
	}

	return ev.attrs, nil
}
