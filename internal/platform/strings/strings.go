// Package strings holds small string and slice helpers used by the wiring code
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s if it has non whitespace content, otherwise panics.
// name says what was missing.
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a route prefix to one leading slash and no trailing
// slash. It panics on an empty or root-only prefix.
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("route prefix is required")
	}
	return s
}

// OrDefault returns def when s is blank
func OrDefault(s, def string) string {
	if std.TrimSpace(s) == "" {
		return def
	}
	return s
}
