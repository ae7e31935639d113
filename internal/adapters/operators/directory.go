package operators

import (
	"context"
	"os"
	"sort"
	"strings"

	"cdrflow/internal/core/cdr"
	perr "cdrflow/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// DirectoryEntry maps a number prefix to an operator
type DirectoryEntry struct {
	Prefix string `yaml:"prefix"`

	cdr.OperatorInfo `yaml:",inline"`
}

// directoryFile is the YAML layout:
//
//	operators:
//	  - prefix: "+44"
//	    operator: BT
//	    country: GB
//	    estimatedCostPerMinute: 0.02
type directoryFile struct {
	Operators []DirectoryEntry `yaml:"operators"`
}

// Directory answers lookups from a static prefix table. The longest matching
// prefix wins. The day is ignored: a directory has no history.
type Directory struct {
	entries []DirectoryEntry // sorted by prefix length, longest first
}

// NewDirectory validates entries and builds a Directory
func NewDirectory(entries []DirectoryEntry) (*Directory, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]DirectoryEntry, 0, len(entries))
	for i, e := range entries {
		e.Prefix = canonical(e.Prefix)
		if len(e.Prefix) < 2 {
			return nil, perr.Newf(perr.ErrorCodeValidation, "operators directory entry %d: prefix is empty", i)
		}
		if _, dup := seen[e.Prefix]; dup {
			return nil, perr.Newf(perr.ErrorCodeValidation, "operators directory entry %d: duplicate prefix %s", i, e.Prefix)
		}
		if err := validateInfo(e.OperatorInfo); err != nil {
			return nil, perr.WithOp(err, "directory entry "+e.Prefix)
		}
		seen[e.Prefix] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Prefix) > len(out[j].Prefix) })
	return &Directory{entries: out}, nil
}

// ParseDirectory decodes a YAML directory document
func ParseDirectory(b []byte) (*Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "operators directory: bad yaml")
	}
	return NewDirectory(f.Operators)
}

// LoadDirectory reads and parses a YAML directory file
func LoadDirectory(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "operators directory: read %s", path)
	}
	return ParseDirectory(b)
}

// Len returns the number of prefixes
func (d *Directory) Len() int { return len(d.entries) }

// Lookup returns the operator of the longest prefix matching number
func (d *Directory) Lookup(ctx context.Context, number string, _ cdr.DayRef) (cdr.OperatorInfo, error) {
	if err := ctx.Err(); err != nil {
		return cdr.OperatorInfo{}, perr.Wrap(err, perr.ErrorCodeTimeout, "operators directory lookup cancelled")
	}
	n := canonical(number)
	for _, e := range d.entries {
		if strings.HasPrefix(n, e.Prefix) {
			return e.OperatorInfo, nil
		}
	}
	return cdr.OperatorInfo{}, perr.NotFoundf("operators directory: no operator for %s", number)
}

// canonical puts a number or prefix in + form
func canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	return s
}
