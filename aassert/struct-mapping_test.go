package aassert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/tagfactory/aassert"
)

type (
	plain struct {
		Name string `factory:"name"`
	}

	withOptions struct {
		ID       int    `factory:"id,omitempty"`
		Name     string `factory:"name"`
		Ignored  bool   `factory:"-"`
		Untagged string
		private  string `factory:"private"` //nolint:unused // field is checked via reflection
	}

	embedded struct {
		plain

		Base
		Supported bool `factory:"supported"`
	}

	Base struct {
		ID string `factory:"id"`
	}
)

func TestTaggedFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		object   any
		expected []string
		pass     bool
	}{
		"nil":            {nil, nil, false},
		"int":            {0, nil, false},
		"string":         {"", nil, false},
		"simple struct":  {plain{}, []string{"name"}, true},
		"ptr to struct":  {&plain{}, []string{"name"}, true},
		"missing field":  {plain{}, []string{}, false},
		"extra field":    {plain{}, []string{"name", "id"}, false},
		"options":        {withOptions{}, []string{"name", "id"}, true},
		"embedded":       {embedded{}, []string{"id", "supported"}, true},
		"wrong embedded": {embedded{}, []string{"name", "id", "supported"}, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pass := aassert.TaggedFields(new(testing.T), "factory", tt.expected, tt.object)
			assert.Equal(t, tt.pass, pass)
		})
	}
}
