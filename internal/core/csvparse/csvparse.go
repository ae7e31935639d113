// Package csvparse turns a raw CDR batch into validated records and per-row
// diagnostics. A bad row never fails the batch; a bad header yields a single
// diagnostic and no records.
package csvparse

import (
	"fmt"
	"strings"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/core/fieldcheck"
)

// Header is the required header row, in order
var Header = [...]string{
	"id",
	"callStartTime",
	"callEndTime",
	"fromNumber",
	"toNumber",
	"callType",
	"region",
}

// ExpectedColumns is the number of fields in every row
const ExpectedColumns = len(Header)

const delim = ","

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse validates payload. Rows are numbered from 1 over the non-empty lines,
// the header being row 1. Lines containing only spaces are not empty and are
// reported like any other malformed row.
func Parse(payload string) cdr.ParseResult {
	var res cdr.ParseResult
	if strings.TrimSpace(payload) == "" {
		return res
	}

	lines := splitLines(payload)
	if len(lines) == 0 {
		return res
	}

	if got := strings.Split(lines[0], delim); !headerOK(got) {
		res.Diagnostics = append(res.Diagnostics, cdr.ParseDiagnostic{
			Row: 1,
			Message: fmt.Sprintf("Invalid headers: expected [%s], got [%s]",
				strings.Join(Header[:], ", "), strings.Join(got, ", ")),
		})
		return res
	}

	for i, line := range lines[1:] {
		row := i + 2
		rec, problems := parseRow(line)
		if len(problems) > 0 {
			res.Diagnostics = append(res.Diagnostics, cdr.ParseDiagnostic{Row: row, Message: strings.Join(problems, "; ")})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// Summary returns the record and diagnostic counts of res
func Summary(res cdr.ParseResult) (records, diagnostics int) {
	return len(res.Records), len(res.Diagnostics)
}

func splitLines(payload string) []string {
	raw := strings.Split(newlines.Replace(payload), "\n")
	out := raw[:0]
	for _, l := range raw {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func headerOK(got []string) bool {
	if len(got) != ExpectedColumns {
		return false
	}
	for i, h := range got {
		if h != Header[i] {
			return false
		}
	}
	return true
}

// parseRow returns either a record or the ordered list of violations
func parseRow(line string) (cdr.CallRecord, []string) {
	tok := strings.Split(line, delim)
	if len(tok) != ExpectedColumns {
		return cdr.CallRecord{}, []string{fmt.Sprintf("Expected %d columns, got %d", ExpectedColumns, len(tok))}
	}
	id, start, end, from, to, kind, region := tok[0], tok[1], tok[2], tok[3], tok[4], tok[5], tok[6]

	var problems []string
	if !fieldcheck.NotBlank(id) {
		problems = append(problems, "id is empty")
	}

	startAt, startOK := fieldcheck.ParseTimestamp(start)
	if !startOK {
		problems = append(problems, fmt.Sprintf(`callStartTime "%s" is not valid ISO 8601`, start))
	}
	endAt, endOK := fieldcheck.ParseTimestamp(end)
	switch {
	case !endOK:
		problems = append(problems, fmt.Sprintf(`callEndTime "%s" is not valid ISO 8601`, end))
	case startOK && endAt.Before(startAt):
		problems = append(problems, "callEndTime is before callStartTime")
	}

	if !fieldcheck.IsE164(from) {
		problems = append(problems, fmt.Sprintf(`fromNumber "%s" is not E.164`, from))
	}
	if !fieldcheck.IsE164(to) {
		problems = append(problems, fmt.Sprintf(`toNumber "%s" is not E.164`, to))
	}
	callType, ok := fieldcheck.ParseCallType(kind)
	if !ok {
		problems = append(problems, fmt.Sprintf(`callType "%s" must be "voice" or "video"`, kind))
	}
	if !fieldcheck.NotBlank(region) {
		problems = append(problems, "region is empty")
	}

	if len(problems) > 0 {
		return cdr.CallRecord{}, problems
	}
	return cdr.CallRecord{
		ID:            strings.TrimSpace(id),
		CallStartTime: start,
		CallEndTime:   end,
		FromNumber:    from,
		ToNumber:      to,
		CallType:      callType,
		Region:        strings.TrimSpace(region),
	}, nil
}
