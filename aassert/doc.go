// Package aassert provides assertions that go beyond what testify is offering.
// It follows the design decisions of testify/assert as close as possible:
// every assertion returns a bool indicating whether it was successful or not.
package aassert
