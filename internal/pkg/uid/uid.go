// Package uid provides identifier generators behind small interfaces so
// callers can be tested with deterministic IDs.
package uid

// StringID generates string-shaped identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() uint64
}
