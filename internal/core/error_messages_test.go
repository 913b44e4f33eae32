package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"empty filing", fmt.Errorf("open filing 1: %w", fecfile.ErrMissingHeader), "FEC001"},
		{"wrong header", &fecfile.IncorrectHeaderError{Tag: "F3"}, "FEC002"},
		{"unsupported version", &fecfile.UnsupportedVersionError{Version: "6.4"}, "FEC003"},
		{"missing field", &fecfile.MissingFieldError{Name: "soft_ver", Index: 4}, "FEC004"},
		{"cover without columns", &fecfile.CoverError{FormType: "TEXT", Err: fecfile.ErrCoverColumns}, "FEC005"},
		{
			"cover with unknown form",
			&fecfile.CoverError{FormType: "F77", Err: &schema.ResolutionError{RowType: "F77", Err: schema.ErrUnknownFormType}},
			"FEC006",
		},
		{"unknown version", &schema.ResolutionError{RowType: "SA11", Version: "2", Err: schema.ErrUnknownVersion}, "FEC007"},
		{"empty record", &fecfile.EmptyRecordError{Line: 3}, "FEC008"},
		{"unterminated text", &fecfile.UnterminatedTextBlockError{Line: 9}, "FEC009"},
		{"read error", &fecfile.RecordReadError{Err: errors.New("boom")}, "FEC010"},
		{"busy", ErrTooManyParses, "PRS001"},
		{"cancelled", fmt.Errorf("export: %w", context.Canceled), "REQ001"},
		{"deadline", context.DeadlineExceeded, "REQ002"},
		{"duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "libfec_filings_pkey"`), "DB001"},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: libfec_filings.filing_id"), "DB001"},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB002"},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB004"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"unknown", errors.New("something strange"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&fecfile.UnsupportedVersionError{Version: "6.4"})
	if !strings.Contains(got, "(Code: FEC003)") {
		t.Errorf("FormatUserError() = %q", got)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if IsUserFacing(errors.New("random")) {
		t.Error("unmatched error should not be user facing")
	}
	if !IsUserFacing(fecfile.ErrMissingHeader) {
		t.Error("ErrMissingHeader should be user facing")
	}
}

func TestUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	tech := &fecfile.EmptyRecordError{Line: 12}
	ue := NewUserError(tech)
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want user message", ue.Error())
	}

	var target *fecfile.EmptyRecordError
	if !errors.As(ue, &target) || target.Line != 12 {
		t.Error("UserError should unwrap to the technical error")
	}
}
