package afactory

import "testing"

// Test returns a new Registry for the use in a single test.
// The sequences of the Registry are reset once the test and its subtests finished,
// so a Registry shared via WithSequences starts over in the next test.
func Test(t *testing.T, opts ...RegistryOpt) *Registry {
	if t == nil {
		panic("t is nil")
	}

	t.Helper()

	reg := NewRegistry(opts...)
	t.Cleanup(reg.Reset)

	return reg
}
