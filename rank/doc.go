// Package rank aggregates raw call statistics into a [Report]: three pure
// derived views over the same immutable record set, ranked by cumulative
// time, by call count, and by self time, each truncated to a top-N depth.
//
// Rankings are fully deterministic. Ties on the primary key fall back to the
// secondary key and finally to the call-site identity (file, line, name)
// ascending, so identical input always yields byte-identical reports
// downstream.
package rank
