package fecfile

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHeader is returned when the stream holds no records at all.
	ErrMissingHeader = errors.New("missing header record")

	// ErrMissingCover is returned when the stream ends after the header.
	ErrMissingCover = errors.New("missing cover record")

	// ErrCoverColumns is returned when the cover form type resolves to a
	// layout without a filer id or filer name column.
	ErrCoverColumns = errors.New("cover layout has no filer id or name column")

	// ErrUnknownFilingID is returned by OpenFile when no id can be derived
	// from the file name.
	ErrUnknownFilingID = errors.New("cannot derive filing id from path")
)

// IncorrectHeaderError is returned when the first record is not tagged HDR.
type IncorrectHeaderError struct {
	Tag string
}

func (e *IncorrectHeaderError) Error() string {
	return fmt.Sprintf("first record is not %q, found %q", headerTag, e.Tag)
}

// MissingFieldError reports a required field absent from a record.
type MissingFieldError struct {
	Name  string
	Index int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q at index %d", e.Name, e.Index)
}

// UnsupportedVersionError is returned when the header declares a format
// version outside SupportedVersions.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %q, supported: %v", e.Version, SupportedVersions)
}

// CoverError wraps any failure while building the cover from the second record.
type CoverError struct {
	FormType string
	Err      error
}

func (e *CoverError) Error() string {
	if e.FormType == "" {
		return fmt.Sprintf("cover: %v", e.Err)
	}
	return fmt.Sprintf("cover %s: %v", e.FormType, e.Err)
}

func (e *CoverError) Unwrap() error { return e.Err }

// RecordReadError is returned when the tokenizer cannot read a record.
type RecordReadError struct {
	Pos Pos
	Err error
}

func (e *RecordReadError) Error() string {
	return fmt.Sprintf("read record at line %d (offset %d): %v", e.Pos.Line, e.Pos.Offset, e.Err)
}

func (e *RecordReadError) Unwrap() error { return e.Err }

// EmptyRecordError is returned for a row whose first field is empty.
type EmptyRecordError struct {
	Line int
}

func (e *EmptyRecordError) Error() string {
	return fmt.Sprintf("empty record at line %d", e.Line)
}

// UnterminatedTextBlockError is returned when the stream ends inside a
// [BEGINTEXT] block. Line is where the block started.
type UnterminatedTextBlockError struct {
	Line int
}

func (e *UnterminatedTextBlockError) Error() string {
	return fmt.Sprintf("text block starting at line %d has no %s", e.Line, endText)
}
