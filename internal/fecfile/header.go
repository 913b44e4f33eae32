package fecfile

import (
	"slices"
	"strings"

	"github.com/JonMunkholm/fec/internal/schema"
)

const headerTag = "HDR"

// SupportedVersions lists the declared format versions Open accepts.
var SupportedVersions = []string{"8.3", "8.4"}

// Header is the filing's first record.
type Header struct {
	RecordType string `json:"record_type"`
	EFType     string `json:"ef_type"`
	FECVersion string `json:"fec_version"`
	SoftName   string `json:"soft_name"`
	SoftVer    string `json:"soft_ver"`

	// Optional; empty when absent.
	ReportID     string `json:"report_id,omitempty"`
	ReportNumber string `json:"report_number,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Cover is the filing's second record. FilerID and FilerName are located by
// column name in the layout resolved for FormType.
type Cover struct {
	FormType  string `json:"form_type"`
	FilerID   string `json:"filer_id"`
	FilerName string `json:"filer_name"`

	// Optional; empty when the layout or record lacks them.
	ReportCode          string `json:"report_code,omitempty"`
	CoverageFromDate    string `json:"coverage_from_date,omitempty"`
	CoverageThroughDate string `json:"coverage_through_date,omitempty"`
}

var (
	filerIDColumns   = []string{"filer_committee_id_number", "candidate_id_number"}
	filerNameColumns = []string{"committee_name", "organization_name"}
)

func parseHeader(fields []string) (Header, error) {
	var h Header
	get := func(idx int, name string) (string, error) {
		if idx >= len(fields) {
			return "", &MissingFieldError{Name: name, Index: idx}
		}
		return fields[idx], nil
	}

	var err error
	if h.RecordType, err = get(0, "record_type"); err != nil {
		return h, err
	}
	if h.EFType, err = get(1, "ef_type"); err != nil {
		return h, err
	}
	if h.FECVersion, err = get(2, "fec_version"); err != nil {
		return h, err
	}
	h.FECVersion = strings.TrimSpace(h.FECVersion)
	if !slices.Contains(SupportedVersions, h.FECVersion) {
		return h, &UnsupportedVersionError{Version: h.FECVersion}
	}
	if h.SoftName, err = get(3, "soft_name"); err != nil {
		return h, err
	}
	if h.SoftVer, err = get(4, "soft_ver"); err != nil {
		return h, err
	}

	h.ReportID = optional(fields, 5)
	h.ReportNumber = optional(fields, 6)
	h.Comment = optional(fields, 7)
	return h, nil
}

func optional(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func parseCover(fields []string, fecVersion string, catalog *schema.Catalog) (Cover, error) {
	var c Cover
	if len(fields) == 0 || fields[0] == "" {
		return c, &CoverError{Err: &MissingFieldError{Name: "form_type", Index: 0}}
	}
	c.FormType = fields[0]

	cols, err := catalog.Resolve(c.FormType, fecVersion)
	if err != nil {
		return c, &CoverError{FormType: c.FormType, Err: err}
	}

	idIdx := cols.Index(filerIDColumns...)
	nameIdx := cols.Index(filerNameColumns...)
	if idIdx < 0 || nameIdx < 0 {
		return c, &CoverError{FormType: c.FormType, Err: ErrCoverColumns}
	}

	for _, idx := range []int{idIdx, nameIdx} {
		if idx >= len(fields) {
			return c, &CoverError{
				FormType: c.FormType,
				Err:      &MissingFieldError{Name: cols.Names[idx], Index: idx},
			}
		}
	}
	c.FilerID = fields[idIdx]
	c.FilerName = fields[nameIdx]

	byName := func(name string) string {
		idx := cols.Index(name)
		if idx < 0 || idx >= len(fields) {
			return ""
		}
		return fields[idx]
	}
	c.ReportCode = byName("report_code")
	c.CoverageFromDate = byName("coverage_from_date")
	c.CoverageThroughDate = byName("coverage_through_date")

	return c, nil
}
