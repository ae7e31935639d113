// Package fieldcheck holds the per-field predicates the CSV parser applies
package fieldcheck

import (
	"regexp"
	"strings"
	"time"

	"cdrflow/internal/core/cdr"
)

// e164 allows an optional '+', a leading 1-9 and 7 to 15 digits in total
var e164 = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// ParseTimestamp accepts only full RFC 3339 date-times with a zone offset;
// fractional seconds are optional. Date-only, zone-less and space separated
// forms are rejected.
func ParseTimestamp(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02T15:04:05Z") || s[10] != 'T' {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsE164 reports whether s is a phone number in E.164 form
func IsE164(s string) bool { return e164.MatchString(s) }

// ParseCallType matches "voice" or "video" exactly
func ParseCallType(s string) (cdr.CallType, bool) {
	switch ct := cdr.CallType(s); ct {
	case cdr.CallTypeVoice, cdr.CallTypeVideo:
		return ct, true
	}
	return "", false
}

// NotBlank reports whether s has any non-space content
func NotBlank(s string) bool { return strings.TrimSpace(s) != "" }
