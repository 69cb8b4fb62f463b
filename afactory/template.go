package afactory

import (
	"context"

	"github.com/brianvoe/gofakeit/v6"
)

// Generator produces the value of an attribute.
// The Evaluator gives access to the attributes resolved so far,
// the sequences and the faker of the Registry.
type Generator func(ctx context.Context, ev *Evaluator) (any, error)

// Attribute is a named Generator.
type Attribute struct {
	Name     string
	Generate Generator
}

// Static always generates the same value.
func Static(value any) Generator {
	return func(context.Context, *Evaluator) (any, error) {
		return value, nil
	}
}

// Func generates a value by calling fn.
func Func(fn func() any) Generator {
	return func(context.Context, *Evaluator) (any, error) {
		return fn(), nil
	}
}

// Sequence generates the next value of the named sequence.
func Sequence(name string) Generator {
	return func(_ context.Context, ev *Evaluator) (any, error) {
		return ev.Generate(name)
	}
}

// Fake generates a random value with the faker of the Registry.
// If the Registry got a seed, the values are the same for every test run.
func Fake(fn func(f *gofakeit.Faker) any) Generator {
	return func(_ context.Context, ev *Evaluator) (any, error) {
		return fn(ev.Faker()), nil
	}
}

// Hook is called with the persisted entity.
type Hook[T any] func(ctx context.Context, entity T) error

// Trait is a named overlay of a Template.
// Its Attributes overwrite the ones of the Template,
// its OnCreate hook is called after the entity got persisted.
type Trait[T any] struct {
	Name       string
	Attributes []Attribute
	OnCreate   Hook[T]
}

// Persister constructs and stores an entity from its resolved attributes.
type Persister[T any] interface {
	Persist(ctx context.Context, attrs Attrs) (T, error)
}

// PersistFunc is an adapter to use ordinary functions as Persister.
type PersistFunc[T any] func(ctx context.Context, attrs Attrs) (T, error)

func (f PersistFunc[T]) Persist(ctx context.Context, attrs Attrs) (T, error) { //nolint:ireturn // valid use of generics
	return f(ctx, attrs)
}

// Template describes how to build entities of type T.
type Template[T any] struct {
	Name       string
	Attributes []Attribute
	Traits     []Trait[T]
	Persister  Persister[T]
}

func (tmpl *Template[T]) trait(name string) (Trait[T], bool) {
	for _, trait := range tmpl.Traits {
		if trait.Name == name {
			return trait, true
		}
	}

	return Trait[T]{}, false
}

func (tmpl *Template[T]) traits(names []string) ([]Trait[T], error) {
	traits := make([]Trait[T], 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}

		trait, ok := tmpl.trait(name)
		if !ok {
			return nil, unknownTraitError(tmpl.Name, name)
		}

		seen[name] = struct{}{}
		traits = append(traits, trait)
	}

	return traits, nil
}

// Evaluator is passed to every Generator of a build.
type Evaluator struct {
	attrs     Attrs
	sequences *Sequences
	faker     *gofakeit.Faker
}

// Get returns an attribute resolved earlier in the same build.
func (ev *Evaluator) Get(name string) (any, bool) {
	v, ok := ev.attrs[name]
	return v, ok
}

// Generate returns the next value of the named sequence.
func (ev *Evaluator) Generate(sequence string) (string, error) {
	return ev.sequences.Generate(sequence)
}

// Faker returns the faker of the Registry.
func (ev *Evaluator) Faker() *gofakeit.Faker {
	return ev.faker
}
