package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefault_ResolvesEveryEntry(t *testing.T) {
	c := defaultCatalog(t)
	require.NotZero(t, c.Len())

	for _, e := range c.Entries() {
		assert.NotZero(t, e.Columns.Len(), "%s %s", e.FormPattern, e.VersionPattern)
		assert.Len(t, e.Columns.Types, e.Columns.Len())
	}

	rowTypes := []string{
		"HDR", "F1N", "F1S", "F1MN", "F2N", "F2S", "F3N", "F3L", "F3LA", "F3PN", "F3PS", "F3S", "F3XN",
		"F3Z1", "F4N", "F5N", "F56", "F57", "F6", "F65", "F7", "F76", "F8", "F8II", "F8III", "F9",
		"F91", "F92", "F93", "F94", "F10", "F105", "F11", "F12", "F13", "F132", "F133", "F24N", "F99",
		"H1", "H2", "H3", "H4", "H5", "H6", "SA11AI", "SB23", "SC10", "SC110", "SC210", "SD10", "SE",
		"SF", "SI", "SL1A", "SL2", "TEXT",
	}
	for _, rowType := range rowTypes {
		for _, v := range []string{"8.3", "8.4"} {
			cols, err := c.Resolve(rowType, v)
			if assert.NoError(t, err, "%s %s", rowType, v) {
				assert.NotZero(t, cols.Len(), "%s %s", rowType, v)
			}
		}
	}
}

func TestResolve_OlderVersions(t *testing.T) {
	c := defaultCatalog(t)

	tests := []struct {
		rowType string
		version string
		wantCol string
	}{
		{"SA11AI", "5.3", "contributor_name"},
		{"SB23", "6.4", "expenditure_purpose_code"},
		{"SB23", "3.00", "payee_name"},
		{"F3XN", "5.0", "treasurer_name"},
		{"F6", "7.0", "candidate_last_name"},
		{"HDR", "3.00", "name_delim"},
	}

	for _, tt := range tests {
		t.Run(tt.rowType+"@"+tt.version, func(t *testing.T) {
			cols, err := c.Resolve(tt.rowType, tt.version)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cols.Index(tt.wantCol), 0, "missing %s", tt.wantCol)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	c := defaultCatalog(t)

	for _, rowType := range []string{"SA11A1", "SB17", "F3N", "F3XA", "SC10", "SC110", "SC210", "TEXT"} {
		for _, v := range []string{"8.3", "8.4"} {
			first, err := c.Resolve(rowType, v)
			require.NoError(t, err, "%s %s", rowType, v)
			second, err := c.Resolve(rowType, v)
			require.NoError(t, err)
			assert.Same(t, first, second)
			assert.NotEmpty(t, first.Names)
		}
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	c := defaultCatalog(t)

	upper, err := c.Resolve("SA11AI", "8.4")
	require.NoError(t, err)
	lower, err := c.Resolve("sa11ai", "8.4")
	require.NoError(t, err)
	assert.Same(t, upper, lower)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	c := defaultCatalog(t)

	tests := []struct {
		rowType string
		wantCol string // a column unique to the expected family
	}{
		{"F3X", "qualified_committee"},
		{"F3XN", "qualified_committee"},
		{"F3P", "activity_primary"},
		{"F3", "election_district"},
		{"F3A", "election_district"},
		{"SC110", "loan_restructured"}, // SC1/10
		{"SC1", "loan_restructured"},
		{"SC10", "loan_balance"}, // SC/10
		{"SC12", "loan_balance"}, // SC/12
		{"SC210", "guarantor_employer"},
	}

	for _, tt := range tests {
		t.Run(tt.rowType, func(t *testing.T) {
			cols, err := c.Resolve(tt.rowType, "8.4")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cols.Index(tt.wantCol), 0, "columns of %s", tt.rowType)
		})
	}
}

func TestResolve_VersionOrder(t *testing.T) {
	c := defaultCatalog(t)

	v8, err := c.Resolve("SA11A1", "8.4")
	require.NoError(t, err)
	v3, err := c.Resolve("SA11A1", "3")
	require.NoError(t, err)

	assert.NotSame(t, v8, v3)
	assert.Equal(t,
		"form_type,filer_committee_id_number,entity_type,contributor_name,contributor_street_1",
		strings.Join(v3.Names[:5], ","))
	assert.Equal(t, "transaction_id", v8.Names[2])
}

func TestResolve_Errors(t *testing.T) {
	c := defaultCatalog(t)

	_, err := c.Resolve("ZZ99", "8.4")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFormType)

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "ZZ99", re.RowType)
	assert.Equal(t, "8.4", re.Version)

	_, err = c.Resolve("SB17", "2.02")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestColumnTypes(t *testing.T) {
	c := defaultCatalog(t)

	cols, err := c.Resolve("SA11A1", "8.4")
	require.NoError(t, err)

	date := cols.Index("contribution_date")
	amount := cols.Index("contribution_amount")
	name := cols.Index("contributor_last_name")
	require.True(t, date >= 0 && amount >= 0 && name >= 0)

	assert.Equal(t, ColumnDate, cols.Types[date])
	assert.Equal(t, ColumnFloat, cols.Types[amount])
	assert.Equal(t, ColumnText, cols.Types[name])
	assert.Equal(t, "float", ColumnFloat.String())
}

func TestIndex(t *testing.T) {
	cols := &Columns{Names: []string{"form_type", "candidate_id_number", "filer_committee_id_number"}}

	if got := cols.Index("filer_committee_id_number", "candidate_id_number"); got != 1 {
		t.Errorf("Index = %d, want 1 (first position wins, not first name)", got)
	}
	if got := cols.Index("committee_name"); got != -1 {
		t.Errorf("Index = %d, want -1", got)
	}
}
