package afactory

import (
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
)

// Attrs is a resolved set of attributes, keyed by attribute name.
type Attrs map[string]any

// Clone returns a shallow copy of the attributes.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return Attrs{}
	}

	return maps.Clone(a)
}

// Decode maps the attributes onto the struct pointed to by out.
// Fields are matched by their `factory` struct tag or, if missing, by their name.
// An attribute without a matching field or of the wrong type is an ErrInvalidAttribute.
func (a Attrs) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ //nolint:exhaustruct // defaults are fine
		TagName:     "factory",
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttribute, err) //nolint:errorlint // prevent mapstructure in api
	}

	if err := decoder.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttribute, err) //nolint:errorlint // prevent mapstructure in api
	}

	return nil
}
