// Package collect implements the statistics collector: a per-run [Session]
// scoped around exactly one target execution, producing [Raw] per-function
// call statistics (call count, cumulative time, self time, call site).
//
// For python targets the collection boundary lives inside the child process:
// the launcher injects [Bootstrap], which observes every call/return event
// synchronously on the target's own thread of control and spools exact
// per-function rows that [Session.Stop] parses. Self time is the in-frame
// time with callee time subtracted, not an estimate. For shell and plain
// executable targets no call boundary is visible, so a wall-clock session
// degrades to a single whole-run record.
//
// The collector only observes. It never mutates target state and never
// captures the target's standard streams. Measurement overhead is not
// subtracted from reported times.
package collect
