// Package schema resolves the ordered column layout of a .fec record from its
// form type and the filing's declared format version.
//
// A [Catalog] is built once from a mapping table (see [Load] and [Default])
// and is immutable afterwards, so a single catalog can be shared by every
// filing and goroutine in the process without locking.
//
// Resolution is a two-level, first-match-wins scan:
//
//  1. the first form family whose pattern matches the row type
//  2. the first version within that family whose pattern matches the version
//
// Several patterns may match the same input (for example "^sc1(10|12)?$" and
// "^sc(10|12)?$"), so declaration order in the mapping table is significant.
package schema

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnknownFormType is returned when no form family matches a row type.
	ErrUnknownFormType = errors.New("unknown form type")

	// ErrUnknownVersion is returned when a form family matches but none of
	// its version patterns match the declared version.
	ErrUnknownVersion = errors.New("unknown version for form type")
)

// ResolutionError reports a failed (row type, version) lookup.
// Err is ErrUnknownFormType or ErrUnknownVersion.
type ResolutionError struct {
	RowType string
	Version string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q (version %q): %v", e.RowType, e.Version, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ColumnType is the storage type a column's values are coerced to.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnDate
	ColumnFloat
)

func (t ColumnType) String() string {
	switch t {
	case ColumnDate:
		return "date"
	case ColumnFloat:
		return "float"
	default:
		return "text"
	}
}

// Columns is a resolved column layout. Names and Types have the same length.
// Columns values are owned by the catalog and must not be modified.
type Columns struct {
	Names []string
	Types []ColumnType
}

// Len returns the number of columns.
func (c *Columns) Len() int { return len(c.Names) }

// Index returns the position of the first column whose name is any of names,
// or -1 if none is present.
func (c *Columns) Index(names ...string) int {
	for i, col := range c.Names {
		for _, name := range names {
			if col == name {
				return i
			}
		}
	}
	return -1
}

type version struct {
	pattern *regexp.Regexp
	columns *Columns
}

type family struct {
	pattern  *regexp.Regexp
	versions []version
}

// Catalog maps (form type, version) pairs to column layouts.
type Catalog struct {
	families []family
	dates    map[string]struct{}
	floats   map[string]struct{}
}

// Resolve returns the columns for rowType as declared by fecVersion.
// The returned *Columns is shared; callers that look up the same row type
// repeatedly may memoize the result.
func (c *Catalog) Resolve(rowType, fecVersion string) (*Columns, error) {
	fam := c.matchFamily(rowType)
	if fam == nil {
		return nil, &ResolutionError{RowType: rowType, Version: fecVersion, Err: ErrUnknownFormType}
	}
	for _, v := range fam.versions {
		if v.pattern.MatchString(fecVersion) {
			return v.columns, nil
		}
	}
	return nil, &ResolutionError{RowType: rowType, Version: fecVersion, Err: ErrUnknownVersion}
}

func (c *Catalog) matchFamily(rowType string) *family {
	for i := range c.families {
		if c.families[i].pattern.MatchString(rowType) {
			return &c.families[i]
		}
	}
	return nil
}

// ColumnType classifies a column name using the catalog's date and float sets.
// Date takes precedence if a name appears in both.
func (c *Catalog) ColumnType(name string) ColumnType {
	if _, ok := c.dates[name]; ok {
		return ColumnDate
	}
	if _, ok := c.floats[name]; ok {
		return ColumnFloat
	}
	return ColumnText
}

// Len returns the number of form families in the catalog.
func (c *Catalog) Len() int { return len(c.families) }

// Entry describes one (family, version) cell of the catalog.
type Entry struct {
	FormPattern    string
	VersionPattern string
	Columns        *Columns
}

// Entries lists every (family, version) cell in declaration order.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for _, fam := range c.families {
		for _, v := range fam.versions {
			out = append(out, Entry{
				FormPattern:    stripFlags(fam.pattern.String()),
				VersionPattern: stripFlags(v.pattern.String()),
				Columns:        v.columns,
			})
		}
	}
	return out
}
