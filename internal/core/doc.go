// Package core provides the dataset model and the computations behind the dashboard.
//
// This package contains all domain logic independent of any UI or transport
// layer. It never produces markup; web handlers, the CLI and tests consume the
// plain values it returns.
//
// # Architecture
//
//   - Parsing: [ParseTable] turns comma-separated text into a [Table] whose
//     cells keep their raw text.
//   - Loading: a [Loader] fetches every configured dataset from a [Source]
//     (normally an [HTTPSource]) and parses it. One dataset failing becomes a
//     [LoadError] and an empty table; it never affects the others.
//   - Snapshot: the [Store] publishes all tables and load errors together as
//     one immutable [Snapshot], swapped atomically by [Store.Reload].
//   - Filtering: [Filter] caps a table, marks rows matching a free-text query
//     and totals the numeric cells of visible rows.
//   - Summary: [Summarize] builds category frequencies, a column sum, a
//     distinct-value list and a two-bucket split for the designated dataset.
//
// # Numeric Cells
//
// A cell is numeric when [ParseNumber] accepts it: commas are removed as
// thousands separators and the rest must be a decimal number. Filtering and
// summarizing both use this rule; malformed numbers are skipped, never
// reported.
//
// # Reloading
//
//	store := core.NewStore(core.NewLoader(source, 4), names)
//	store.Reload(ctx)
//	snap := store.Current() // hold for the whole render
//
// Readers never block a reload and never see tables from one reload paired
// with errors from another.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SRC001-SRC006: Source errors (timeouts, status codes, TLS)
//   - CSV001-CSV004: Parse errors (field counts, quoting, empty bodies)
//   - TBL001, RATE001, REQ001: Request errors
package core
