package afactory_test

import (
	"context"
	"errors"
	"sync"

	"github.com/go-arrower/tagfactory/afactory"
)

var (
	ctx = context.Background()

	errPersist = errors.New("persist failed")
	errHook    = errors.New("hook failed")
)

type entity struct {
	ID        int    `factory:"id"`
	Name      string `factory:"name"`
	Supported bool   `factory:"supported"`
}

// recorder persists entities in memory and records every call,
// including the calls to the hooks it hands out.
type recorder struct {
	mu     sync.Mutex
	err    error
	stored []entity
	calls  []string
}

func (r *recorder) Persist(_ context.Context, attrs afactory.Attrs) (entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, "persist")

	if r.err != nil {
		return entity{}, r.err
	}

	var e entity
	if err := attrs.Decode(&e); err != nil {
		return entity{}, err
	}

	e.ID = len(r.stored) + 1
	r.stored = append(r.stored, e)

	return e, nil
}

func (r *recorder) hook(name string, err error) afactory.Hook[entity] {
	return func(_ context.Context, e entity) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if e.ID == 0 {
			r.calls = append(r.calls, name+":unpersisted")
		} else {
			r.calls = append(r.calls, name)
		}

		return err
	}
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.calls...)
}

// newTagRegistry returns a registry with the tag template, as a test suite would define it.
func newTagRegistry(r *recorder, opts ...afactory.RegistryOpt) *afactory.Registry {
	reg := afactory.NewRegistry(opts...)

	_ = reg.Sequences().Define("name", afactory.Prefix("tag"))

	afactory.MustDefine(reg, afactory.Template[entity]{
		Name: "tag",
		Attributes: []afactory.Attribute{
			{Name: "name", Generate: afactory.Sequence("name")},
			{Name: "supported", Generate: afactory.Static(true)},
		},
		Traits: []afactory.Trait[entity]{
			{Name: "search_indexed", OnCreate: r.hook("index", nil)},
			{Name: "unsupported", Attributes: []afactory.Attribute{
				{Name: "supported", Generate: afactory.Static(false)},
			}},
			{Name: "supported", Attributes: []afactory.Attribute{
				{Name: "supported", Generate: afactory.Static(true)},
			}},
			{Name: "notified", OnCreate: r.hook("notify", nil)},
			{Name: "broken", OnCreate: r.hook("broken", errHook)},
		},
		Persister: r,
	})

	return reg
}
