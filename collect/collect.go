package collect

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrNoSession indicates Stop was called without a started session.
	ErrNoSession = errors.New("no active collection session")
	// ErrPartialResult indicates collection was interrupted before the
	// target finished. Statistics recovered up to that point are still
	// returned alongside this error.
	ErrPartialResult = errors.New("partial profiling result")
)

// FuncStat is the call statistics for one function, keyed by its call-site
// identity (file, line, name).
//
// Calls is at least 1 for any recorded function. Self never exceeds Cum.
type FuncStat struct {
	File  string
	Name  string
	Line  int
	Calls int64
	Cum   time.Duration
	Self  time.Duration
}

// Location returns the "file:line" form of the call-site identity.
func (f FuncStat) Location() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// Raw is the unranked output of one collection session.
type Raw struct {
	Funcs   []FuncStat
	Wall    time.Duration
	Partial bool
}

// Session wraps a single target execution with statistics collection.
// Exactly one session is active per run: [Session.Start] opens the
// collection window and [Session.Stop] closes it and returns the raw
// statistics.
//
// An instrumented session (from [NewSession]) allocates a spool file that
// the child's instrumentation bootstrap writes per-function rows into; Stop
// parses the spool. A wall-clock session (from [NewWallSession]) has no
// spool and synthesizes a single whole-run record, which is all that can be
// observed for targets the instrumentation boundary cannot see into.
type Session struct {
	started time.Time
	spool   string
	label   string
	active  bool
}

// NewSession creates an instrumented, spool-backed [Session].
func NewSession() *Session {
	return &Session{}
}

// NewWallSession creates a wall-clock [Session]. The synthetic record is
// named after label.
func NewWallSession(label string) *Session {
	return &Session{label: label}
}

// Start opens the collection window. For instrumented sessions the first
// call also allocates the spool file; pass [Session.SpoolPath] to the child.
// Calling Start again before Stop re-opens the window so the measured span
// hugs the spawn as tightly as possible.
func (s *Session) Start() error {
	if s.label == "" && s.spool == "" {
		f, err := os.CreateTemp("", "hotpath-*.stats")
		if err != nil {
			return fmt.Errorf("creating stats spool: %w", err)
		}

		s.spool = f.Name()

		err = f.Close()
		if err != nil {
			return fmt.Errorf("creating stats spool: %w", err)
		}
	}

	s.started = time.Now()
	s.active = true

	return nil
}

// SpoolPath returns the spool file path for an instrumented session, or ""
// for a wall-clock session.
func (s *Session) SpoolPath() string {
	return s.spool
}

// Stop closes the collection window and returns the raw statistics.
//
// If the spool is missing or unreadable, for example because the child was
// killed before its instrumentation flushed, Stop returns a [Raw] flagged
// Partial together with an error wrapping [ErrPartialResult]; it never
// silently drops the run.
func (s *Session) Stop() (Raw, error) {
	if !s.active {
		return Raw{}, ErrNoSession
	}

	s.active = false
	wall := time.Since(s.started)

	if s.label != "" {
		return Raw{
			Funcs: []FuncStat{{
				File:  "command",
				Name:  s.label,
				Line:  0,
				Calls: 1,
				Cum:   wall,
				Self:  wall,
			}},
			Wall: wall,
		}, nil
	}

	defer os.Remove(s.spool) //nolint:errcheck // Best-effort cleanup.

	data, err := os.ReadFile(s.spool)
	if err != nil {
		return Raw{Wall: wall, Partial: true},
			fmt.Errorf("%w: reading stats spool: %w", ErrPartialResult, err)
	}

	funcs, err := parseSpool(data)
	if err != nil {
		return Raw{Wall: wall, Partial: true},
			fmt.Errorf("%w: %w", ErrPartialResult, err)
	}

	return Raw{Funcs: funcs, Wall: wall}, nil
}

// Discard abandons a started session without producing statistics, removing
// the spool file if one was allocated. Used when the child never launched.
func (s *Session) Discard() {
	if !s.active {
		return
	}

	s.active = false

	if s.spool != "" {
		os.Remove(s.spool) //nolint:errcheck // Best-effort cleanup.
	}
}

// spoolRow is one per-function row as dumped by the bootstrap. Times are in
// seconds.
type spoolRow struct {
	File  string  `json:"file"`
	Name  string  `json:"name"`
	Line  int     `json:"line"`
	Calls int64   `json:"calls"`
	Self  float64 `json:"self"`
	Cum   float64 `json:"cum"`
}

// negligible is the cumulative-time floor below which interpreter-internal
// frames are dropped from the raw statistics.
const negligible = time.Millisecond

// parseSpool decodes the spool rows and normalizes them into [FuncStat]
// records, enforcing the record invariants (Calls >= 1, 0 <= Self <= Cum).
func parseSpool(data []byte) ([]FuncStat, error) {
	var rows []spoolRow

	err := json.Unmarshal(data, &rows)
	if err != nil {
		return nil, fmt.Errorf("decoding stats spool: %w", err)
	}

	funcs := make([]FuncStat, 0, len(rows))

	for _, row := range rows {
		if row.Calls < 1 {
			continue
		}

		fs := FuncStat{
			File:  row.File,
			Name:  row.Name,
			Line:  row.Line,
			Calls: row.Calls,
			Cum:   secondsToDuration(row.Cum),
			Self:  secondsToDuration(row.Self),
		}
		if fs.Self > fs.Cum {
			fs.Self = fs.Cum
		}

		// Interpreter built-ins carry no usable call site; keep them only
		// when they account for measurable time.
		if strings.HasPrefix(fs.File, "~") && fs.Cum < negligible {
			continue
		}
		if strings.HasPrefix(fs.File, "<") && fs.Cum < negligible {
			continue
		}

		funcs = append(funcs, fs)
	}

	return funcs, nil
}

func secondsToDuration(sec float64) time.Duration {
	if sec <= 0 {
		return 0
	}

	return time.Duration(sec * float64(time.Second))
}
