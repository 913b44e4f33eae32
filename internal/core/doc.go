// Package core turns parsed filings into typed rows and drives them into
// storage sinks.
//
// # Reconciliation
//
// Real filings rarely match their declared layout exactly. [Reconcile]
// aligns each row's fields against the columns resolved for its row type:
// the filing id is prepended, a single trailing surplus value is dropped,
// short rows are padded with empty text, and longer rows are truncated with
// a [Warning]. Fields are then coerced by column type with [Coerce]; a value
// that does not convert stays text.
//
// # Export
//
// An [Exporter] writes one filing per [Session] of a [Sink]. Writers are
// prepared lazily, once per row type, and discarded with the session.
// [ExportAll] fans filings out over a bounded errgroup:
//
//	exp := &core.Exporter{Sink: sink}
//	results, err := core.ExportAll(ctx, exp, core.FileSources(parser, paths), 4)
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FEC001-FEC010: filing format and record errors
//   - DB001-DB004: database errors
//   - FILE001-FILE002, PRS001, REQ001-REQ002: upload and request errors
package core
