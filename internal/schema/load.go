package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed mappings.yaml
var defaultMappings []byte

// Mapping is the on-disk form of a catalog. Lists keep declaration order,
// which is the match order.
type Mapping struct {
	Forms        []FormMapping `yaml:"forms"`
	DateColumns  []string      `yaml:"date_columns"`
	FloatColumns []string      `yaml:"float_columns"`
}

// FormMapping is one form family.
type FormMapping struct {
	Pattern  string           `yaml:"pattern"`
	Versions []VersionMapping `yaml:"versions"`
}

// VersionMapping is one version layout within a form family.
type VersionMapping struct {
	Pattern string   `yaml:"pattern"`
	Columns []string `yaml:"columns"`
}

// Default returns the catalog built from the embedded mapping table.
// It is loaded once per process.
var Default = sync.OnceValues(func() (*Catalog, error) {
	return Load(bytes.NewReader(defaultMappings))
})

// LoadFile reads a YAML mapping table from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mappings: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load decodes a YAML mapping table and builds a catalog from it.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Mapping
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	return New(m)
}

// New validates m and compiles its patterns. All problems are reported
// together rather than stopping at the first.
func New(m Mapping) (*Catalog, error) {
	var errs []string

	c := &Catalog{
		dates:  toSet(m.DateColumns),
		floats: toSet(m.FloatColumns),
	}

	if len(m.Forms) == 0 {
		errs = append(errs, "no form families defined")
	}

	for i, fm := range m.Forms {
		fp, err := compilePattern(fm.Pattern)
		if err != nil {
			errs = append(errs, fmt.Sprintf("forms[%d]: %v", i, err))
			continue
		}
		if len(fm.Versions) == 0 {
			errs = append(errs, fmt.Sprintf("forms[%d] (%s): no versions defined", i, fm.Pattern))
			continue
		}

		fam := family{pattern: fp}
		for j, vm := range fm.Versions {
			vp, err := compilePattern(vm.Pattern)
			if err != nil {
				errs = append(errs, fmt.Sprintf("forms[%d].versions[%d]: %v", i, j, err))
				continue
			}
			if problem := checkColumns(vm.Columns); problem != "" {
				errs = append(errs, fmt.Sprintf("forms[%d].versions[%d] (%s %s): %s", i, j, fm.Pattern, vm.Pattern, problem))
				continue
			}
			fam.versions = append(fam.versions, version{
				pattern: vp,
				columns: c.layout(vm.Columns),
			})
		}
		c.families = append(c.families, fam)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid mappings:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return c, nil
}

func (c *Catalog) layout(names []string) *Columns {
	cols := &Columns{
		Names: append([]string(nil), names...),
		Types: make([]ColumnType, len(names)),
	}
	for i, name := range names {
		cols.Types[i] = c.ColumnType(name)
	}
	return cols
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if strings.TrimSpace(p) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	re, err := regexp.Compile("(?i)" + p)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", p, err)
	}
	return re, nil
}

func stripFlags(p string) string {
	return strings.TrimPrefix(p, "(?i)")
}

// checkColumns returns a description of the first problem in names, or "".
func checkColumns(names []string) string {
	if len(names) == 0 {
		return "no columns"
	}
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Sprintf("column %d has an empty name", i)
		}
		// Column names become SQL identifiers, which fold case.
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Sprintf("duplicate column %q", name)
		}
		seen[key] = true
	}
	return ""
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
