// Package launch runs a profiled target in an isolated child process and
// drives the full pipeline: collection session around the exact execution
// span, aggregation into a ranked report, run metadata attached.
//
// Isolation is the strict process boundary. The child shares nothing with
// the profiler beyond inherited standard streams, streamed through in real
// time rather than captured, so profiling never buffer-blocks visible
// output and a crashing target cannot take the profiler down with it.
//
// [Profile] is the programmatic entry point; [Launcher] gives callers
// control over streams and interpreter binaries.
package launch
