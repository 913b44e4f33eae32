package core

// error_messages.go maps technical errors to user-facing messages with codes
// that can be quoted to support.
//
// # Filing Errors (FEC001-FEC099)
//
//	FEC001 - Empty filing: no records at all
//	FEC002 - Not a filing: first record is not tagged HDR
//	FEC003 - Unsupported version: header declares a version other than 8.3/8.4
//	FEC004 - Missing field: a required header or cover field is absent
//	FEC005 - Bad cover: the cover record could not be read
//	FEC006 - Unknown form type: no layout matches a record's form type
//	FEC007 - Unknown version: the form type has no layout for this version
//	FEC008 - Empty record: a row has no form type
//	FEC009 - Unterminated text: a [BEGINTEXT] block never ends
//	FEC010 - Unreadable record: the byte stream could not be tokenized
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate filing: the filing was already exported
//	DB002 - Connection refused
//	DB003 - Connection reset
//	DB004 - Database locked (SQLite busy)
//
// # File and Request Errors
//
//	FILE001 - File too large
//	FILE002 - No file provided
//	PRS001  - Too many parses in flight
//	REQ001  - Request cancelled
//	REQ002  - Request timed out
//
// # Default (ERR000)
//
// Fallback when nothing matches; check the logs for the technical error.
//
// Typed errors from the fecfile and schema packages are matched first with
// errors.Is/errors.As. Anything else falls through to case-insensitive
// substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fec/internal/fecfile"
	"github.com/JonMunkholm/fec/internal/schema"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorMatcher struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// errorMatchers is checked in order. ResolutionError sentinels come before
// CoverError so a cover with an unknown form type reports FEC006.
var errorMatchers = []errorMatcher{
	{is(fecfile.ErrMissingHeader), UserMessage{
		Message: "The filing is empty",
		Action:  "Upload a complete .fec file",
		Code:    "FEC001",
	}},
	{as[*fecfile.IncorrectHeaderError](), UserMessage{
		Message: "This does not look like an FEC filing",
		Action:  "The first record must be an HDR header; check the file type",
		Code:    "FEC002",
	}},
	{as[*fecfile.UnsupportedVersionError](), UserMessage{
		Message: "This filing uses an unsupported format version",
		Action:  "Only version 8.3 and 8.4 filings can be read",
		Code:    "FEC003",
	}},
	{is(schema.ErrUnknownFormType), UserMessage{
		Message: "The filing contains an unknown form type",
		Action:  "Check for a newer mappings file that covers this form",
		Code:    "FEC006",
	}},
	{is(schema.ErrUnknownVersion), UserMessage{
		Message: "A form type has no layout for this filing's version",
		Action:  "Check for a newer mappings file that covers this version",
		Code:    "FEC007",
	}},
	{as[*fecfile.CoverError](), UserMessage{
		Message: "The cover record could not be read",
		Action:  "Verify the second record of the filing is a valid cover page",
		Code:    "FEC005",
	}},
	{as[*fecfile.MissingFieldError](), UserMessage{
		Message: "A required field is missing",
		Action:  "The header record is truncated; re-download the filing",
		Code:    "FEC004",
	}},
	{as[*fecfile.EmptyRecordError](), UserMessage{
		Message: "The filing contains a record with no form type",
		Action:  "Remove blank-prefixed lines from the filing",
		Code:    "FEC008",
	}},
	{as[*fecfile.UnterminatedTextBlockError](), UserMessage{
		Message: "A text block is never closed",
		Action:  "The filing appears truncated; re-download it",
		Code:    "FEC009",
	}},
	{as[*fecfile.RecordReadError](), UserMessage{
		Message: "Part of the filing could not be read",
		Action:  "Re-download the filing and try again",
		Code:    "FEC010",
	}},
	{is(ErrTooManyParses), UserMessage{
		Message: "The system is busy processing other filings",
		Action:  "Please wait a moment and try again",
		Code:    "PRS001",
	}},
	{is(context.Canceled), UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{is(context.DeadlineExceeded), UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller filing or try again later",
		Code:    "REQ002",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors from drivers and the HTTP layer that have no
// exported type to match on.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "This filing was already exported",
		Action:  "Delete the existing filing first or export to a new database",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This filing was already exported",
		Action:  "Delete the existing filing first or export to a new database",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB003",
	}},
	{"database is locked", UserMessage{
		Message: "The database is busy",
		Action:  "Close other programs using the database and retry",
		Code:    "DB004",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Export large filings with the command line tool instead",
		Code:    "FILE001",
	}},
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Export large filings with the command line tool instead",
		Code:    "FILE001",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a .fec file to upload",
		Code:    "FILE002",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Returns
// the zero UserMessage for a nil error and ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMatchers {
		if m.match(err) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns
// the user message; Unwrap returns the technical error for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
