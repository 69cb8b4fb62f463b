package aassert

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TaggedFields asserts that the struct object maps exactly the expected names
// with the struct tag key, e.g. `factory:"name"`.
// Use it to notice, when a struct changes and the code mapping it has to follow.
// Fields tagged with "-" and embedded structs without a tag are followed.
func TaggedFields(t *testing.T, key string, expected []string, object any, msgAndArgs ...any) bool {
	t.Helper()

	if object == nil {
		return assert.Fail(t, "invalid argument, it has to be a struct")
	}

	typ := reflect.TypeOf(object)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return assert.Fail(t, "invalid argument, it has to be a struct")
	}

	got := taggedNames(typ, key)

	want := slices.Clone(expected)
	slices.Sort(want)
	slices.Sort(got)

	if !slices.Equal(want, got) {
		t.Log("INFO: The fields of the struct: `" + typ.String() + "` mapped by `" + key + "` changed.")
		t.Log("=> Inspect the factories and functions mapping this struct.")

		return assert.Fail(t, fmt.Sprintf("struct changed, it maps: [%s], expected: [%s]",
			strings.Join(got, ", "), strings.Join(want, ", ")), msgAndArgs...)
	}

	return true
}

func taggedNames(typ reflect.Type, key string) []string {
	names := []string{}

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get(key), ",")

		if name == "" && field.Anonymous && field.Type.Kind() == reflect.Struct {
			names = append(names, taggedNames(field.Type, key)...)
			continue
		}

		if name == "" || name == "-" {
			continue
		}

		names = append(names, name)
	}

	return names
}
