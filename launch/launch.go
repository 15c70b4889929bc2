package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"go.hotpath.dev/hotpath/collect"
	"go.hotpath.dev/hotpath/rank"
	"go.hotpath.dev/hotpath/target"
)

// DefaultTopN is the ranking depth used when the caller does not choose one.
const DefaultTopN = 15

// ErrLaunch indicates the target command could not be started at all.
// No report exists when a run fails with this error.
var ErrLaunch = errors.New("unable to launch target")

// Launcher runs target commands in isolated child processes wrapped by a
// collection session. The profiler's process and the target's process share
// nothing beyond the inherited standard streams, so the target can neither
// corrupt nor be corrupted by the profiler's own state.
//
// Create instances with [New]; the zero value is not usable.
type Launcher struct {
	// Stdout and Stderr receive the target's output in real time.
	Stdout io.Writer
	Stderr io.Writer
	// Stdin is handed to the target for interactive use.
	Stdin io.Reader

	// PythonBin runs python targets that do not name their own interpreter.
	PythonBin string
	// ShellBin runs shell targets.
	ShellBin string
}

// New creates a [Launcher] wired to the caller's standard streams, python3,
// and sh.
func New() *Launcher {
	return &Launcher{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Stdin:     os.Stdin,
		PythonBin: "python3",
		ShellBin:  "sh",
	}
}

// Run profiles one target execution and returns its report.
//
// Run blocks until the child exits; no timeout is imposed, so a hung target
// hangs the run until ctx is canceled. Cancellation kills the child rather
// than orphaning it. A target that starts but exits non-zero is not an
// error: the report is still produced with the exit status surfaced.
//
// When Run returns an error wrapping [collect.ErrPartialResult] the
// returned report is still valid and flagged partial.
func (l *Launcher) Run(ctx context.Context, tgt target.Target, topN int) (*rank.Report, error) {
	// Depth errors surface before any process is spawned.
	if topN < 1 {
		return nil, fmt.Errorf("%w: top-n must be at least 1, got %d", rank.ErrInvalidDepth, topN)
	}

	sess, argv, err := l.prepare(tgt)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	slog.Debug("launching target",
		slog.String("run_id", runID),
		slog.String("mode", string(tgt.Mode)),
		slog.Any("argv", argv),
	)

	err = sess.Start()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Stdin = l.Stdin

	// The child gets its own process group so cancellation reaches every
	// descendant, not just the immediate child. Without this, a grandchild
	// holding the inherited stdio pipes keeps Wait blocked until the whole
	// tree exits on its own. WaitDelay unblocks Wait even if a descendant
	// escaped the group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}

		return err
	}
	cmd.WaitDelay = 3 * time.Second

	err = cmd.Start()
	if err != nil {
		sess.Discard()

		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	exitCode := 0

	waitErr := cmd.Wait()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	raw, stopErr := sess.Stop()
	if stopErr != nil && !errors.Is(stopErr, collect.ErrPartialResult) {
		return nil, stopErr
	}

	if ctx.Err() != nil {
		raw.Partial = true
	}

	report, err := rank.Aggregate(raw, topN)
	if err != nil {
		return nil, err
	}

	report.RunID = runID
	report.ExitCode = exitCode

	slog.Debug("target finished",
		slog.String("run_id", runID),
		slog.Int("exit_code", exitCode),
		slog.Duration("wall", raw.Wall),
		slog.Int("functions", len(raw.Funcs)),
		slog.Bool("partial", report.Partial),
	)

	return report, stopErr
}

// prepare builds the collection session and the child's argument vector for
// one target.
func (l *Launcher) prepare(tgt target.Target) (*collect.Session, []string, error) {
	switch tgt.Mode {
	case target.ModePython:
		sess := collect.NewSession()

		argv, err := l.pythonArgv(tgt, sess)
		if err != nil {
			return nil, nil, err
		}

		return sess, argv, nil

	case target.ModeShell:
		return collect.NewWallSession(tgt.String()), l.shellArgv(tgt), nil

	case target.ModeExec:
		return collect.NewWallSession(tgt.String()), tgt.Argv, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", target.ErrUnknownMode, tgt.Mode)
}

// pythonArgv wraps a python target in the instrumentation bootstrap.
func (l *Launcher) pythonArgv(tgt target.Target, sess *collect.Session) ([]string, error) {
	// Start here so the spool path exists for the argv; Run restarts the
	// session immediately before the spawn to re-open the timing window.
	err := sess.Start()
	if err != nil {
		return nil, err
	}

	spool := sess.SpoolPath()
	argv := tgt.Argv
	head := filepath.Base(argv[0])

	if head == "python" || head == "python3" || strings.HasSuffix(head, "-python") || strings.HasSuffix(head, "-python3") {
		interp, rest := argv[0], argv[1:]

		switch {
		case len(rest) >= 2 && rest[0] == "-m":
			return wrap(interp, spool, collect.KindModule, rest[1], rest[2:]), nil

		case len(rest) >= 2 && rest[0] == "-c":
			return wrap(interp, spool, collect.KindCode, rest[1], rest[2:]), nil

		case len(rest) >= 1:
			return wrap(interp, spool, collect.KindScript, rest[0], rest[1:]), nil
		}

		sess.Discard()

		return nil, fmt.Errorf("%w: %s was given nothing to run", ErrLaunch, interp)
	}

	if strings.HasSuffix(head, ".py") {
		return wrap(l.PythonBin, spool, collect.KindScript, argv[0], argv[1:]), nil
	}

	// A console-script tool: profile its resolved entry script directly.
	path, err := exec.LookPath(argv[0])
	if err != nil {
		sess.Discard()

		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	return wrap(l.PythonBin, spool, collect.KindScript, path, argv[1:]), nil
}

func wrap(interp, spool, kind, tgt string, rest []string) []string {
	argv := []string{interp, "-c", collect.Bootstrap, spool, kind, tgt}

	return append(argv, rest...)
}

// shellArgv builds the child argv for shell targets: commands already
// naming a shell run as given, .sh scripts run through the shell, and
// anything else runs as an inline shell line.
func (l *Launcher) shellArgv(tgt target.Target) []string {
	head := filepath.Base(tgt.Argv[0])

	switch {
	case head == "sh" || head == "bash" || head == "zsh" || head == "dash":
		return tgt.Argv

	case strings.HasSuffix(head, ".sh"):
		return append([]string{l.ShellBin}, tgt.Argv...)
	}

	return []string{l.ShellBin, "-c", tgt.String()}
}

// Profile is the programmatic entry point: it classifies argv under mode,
// runs it with a default [Launcher], and returns the report. See
// [Launcher.Run] for error and partial-result semantics.
func Profile(ctx context.Context, argv []string, topN int, mode target.Mode) (*rank.Report, error) {
	tgt, err := target.New(argv, mode)
	if err != nil {
		return nil, err
	}

	return New().Run(ctx, tgt, topN)
}
