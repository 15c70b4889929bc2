// Package render formats a [go.hotpath.dev/hotpath/rank.Report] as
// human-readable text: an execution header (run ID, exit code, wall time,
// partial warning), then one table per ranking axis with rank, call-site
// identity, call count, and timing columns; the self-time table reports
// each function's share of its own cumulative time.
//
// Times are rendered in seconds at fixed precision regardless of magnitude
// so columns stay aligned. Rendering is pure; writing the text anywhere is
// the caller's responsibility.
package render
