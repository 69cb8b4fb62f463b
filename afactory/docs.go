// Package afactory builds test fixtures from named templates.
//
// A Template lists the default attributes of an entity as ordered generators
// and any number of named traits. A Trait can overwrite attributes and
// register an OnCreate hook, that is called after the entity got persisted.
//
//	reg := afactory.Test(t)
//	_ = reg.Sequences().Define("name", afactory.Prefix("tag"))
//
//	_ = afactory.Define(reg, afactory.Template[Tag]{
//		Name: "tag",
//		Attributes: []afactory.Attribute{
//			{Name: "name", Generate: afactory.Sequence("name")},
//			{Name: "supported", Generate: afactory.Static(true)},
//		},
//		Traits:    []afactory.Trait[Tag]{{Name: "search_indexed", OnCreate: indexInline}},
//		Persister: repo,
//	})
//
//	tag, err := afactory.Build[Tag](ctx, reg, "tag", afactory.WithTraits("search_indexed"))
//
// Attributes are resolved in this order: the template's defaults in declaration order,
// the attributes of each trait in the order the traits are given, the overrides.
// The last one wins.
package afactory
