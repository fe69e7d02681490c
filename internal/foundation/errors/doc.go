// Package errors provides the classified error primitives used across sssg.
//
// Every failure the build engine and dev server can report maps onto one
// ErrorCategory:
//   - CategorySourceMissing: a source vanished between discovery and read (skip and log)
//   - CategoryIO: permission or disk failure (aborts the current rebuild)
//   - CategoryPortUnavailable: no free port in the configured range
//   - CategoryAmbiguousTemplate: layout/snippet name collisions
//   - CategoryNotFound: unknown entity lookups in the store
//
// Example usage:
//
//	err := errors.IOError("write output").
//		WithContext("path", out).
//		WithCause(originalErr).
//		Build()
package errors
