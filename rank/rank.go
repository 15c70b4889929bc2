package rank

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.hotpath.dev/hotpath/collect"
)

// ErrInvalidDepth indicates a top-N depth below 1. Depths are never
// silently clamped.
var ErrInvalidDepth = errors.New("invalid ranking depth")

// Entry is one ranked function with its display-only average time per call.
type Entry struct {
	collect.FuncStat

	Avg time.Duration
}

// Report is the derived, read-only view over one run's call statistics: the
// same records ranked along three axes and truncated to the top-N depth.
// A Report is built once per run by [Aggregate] and never mutated after the
// launcher fills in the run metadata.
type Report struct {
	RunID      string
	ByCumTime  []Entry
	ByCalls    []Entry
	BySelfTime []Entry
	Wall       time.Duration
	TopN       int
	ExitCode   int
	Partial    bool
}

// Aggregate ranks raw statistics along both axes and truncates each ranking
// to topN entries. Fewer recorded functions than topN yields shorter
// rankings, never padding. Empty raw statistics yield a valid empty report;
// an empty profile is informative, not exceptional.
func Aggregate(raw collect.Raw, topN int) (*Report, error) {
	if topN < 1 {
		return nil, fmt.Errorf("%w: top-n must be at least 1, got %d", ErrInvalidDepth, topN)
	}

	entries := make([]Entry, 0, len(raw.Funcs))

	for _, fs := range raw.Funcs {
		if fs.Calls < 1 {
			continue
		}

		entries = append(entries, Entry{
			FuncStat: fs,
			Avg:      fs.Cum / time.Duration(fs.Calls),
		})
	}

	byCum := slices.Clone(entries)
	slices.SortFunc(byCum, compareByCumTime)

	byCalls := slices.Clone(entries)
	slices.SortFunc(byCalls, compareByCalls)

	bySelf := slices.Clone(entries)
	slices.SortFunc(bySelf, compareBySelfTime)

	return &Report{
		ByCumTime:  truncate(byCum, topN),
		ByCalls:    truncate(byCalls, topN),
		BySelfTime: truncate(bySelf, topN),
		Wall:       raw.Wall,
		TopN:       topN,
		Partial:    raw.Partial,
	}, nil
}

// compareByCumTime orders by cumulative time descending, call count
// descending, then call-site identity ascending for determinism.
func compareByCumTime(a, b Entry) int {
	if c := cmp.Compare(b.Cum, a.Cum); c != 0 {
		return c
	}

	if c := cmp.Compare(b.Calls, a.Calls); c != 0 {
		return c
	}

	return compareCallSite(a, b)
}

// compareByCalls orders by call count descending, cumulative time
// descending, then call-site identity ascending.
func compareByCalls(a, b Entry) int {
	if c := cmp.Compare(b.Calls, a.Calls); c != 0 {
		return c
	}

	if c := cmp.Compare(b.Cum, a.Cum); c != 0 {
		return c
	}

	return compareCallSite(a, b)
}

// compareBySelfTime orders by self time descending, cumulative time
// descending, then call-site identity ascending.
func compareBySelfTime(a, b Entry) int {
	if c := cmp.Compare(b.Self, a.Self); c != 0 {
		return c
	}

	if c := cmp.Compare(b.Cum, a.Cum); c != 0 {
		return c
	}

	return compareCallSite(a, b)
}

func compareCallSite(a, b Entry) int {
	if c := cmp.Compare(a.File, b.File); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}

	return cmp.Compare(a.Name, b.Name)
}

func truncate(entries []Entry, topN int) []Entry {
	if len(entries) > topN {
		entries = entries[:topN]
	}

	return entries
}
