package collect

// Kind values select how the bootstrap runs its target. They appear as the
// second argument in the child's argument vector.
const (
	// KindScript runs a script file path.
	KindScript = "script"
	// KindModule runs a module as __main__ (python -m).
	KindModule = "module"
	// KindCode executes an inline code string (python -c).
	KindCode = "code"
)

// Bootstrap is the instrumentation preamble the launcher hands to the
// python interpreter via -c. It enables deterministic call/return profiling
// immediately before the target's first instruction, disables it immediately
// after the last, and dumps per-function rows to the spool file in a finally
// block so normal exit, uncaught exceptions, and non-zero exits all still
// produce statistics. The child's own exit code is preserved.
//
// Child argv layout: python -c Bootstrap <spool> <kind> <target> [args...]
const Bootstrap = `
import cProfile
import json
import runpy
import sys

spool, kind, tgt = sys.argv[1], sys.argv[2], sys.argv[3]
rest = sys.argv[4:]

prof = cProfile.Profile()
code = 0
try:
    try:
        if kind == "module":
            sys.argv = [tgt] + rest
            prof.enable()
            try:
                runpy.run_module(tgt, run_name="__main__", alter_sys=True)
            finally:
                prof.disable()
        elif kind == "code":
            sys.argv = ["-c"] + rest
            src = compile(tgt, "<string>", "exec")
            prof.enable()
            try:
                exec(src, {"__name__": "__main__"})
            finally:
                prof.disable()
        else:
            sys.argv = [tgt] + rest
            prof.enable()
            try:
                runpy.run_path(tgt, run_name="__main__")
            finally:
                prof.disable()
    except SystemExit as e:
        if isinstance(e.code, int):
            code = e.code
        elif e.code is not None:
            print(e.code, file=sys.stderr)
            code = 1
    except BaseException:
        import traceback
        traceback.print_exc()
        code = 1
finally:
    prof.create_stats()
    rows = []
    for (fn, line, name), (cc, nc, tt, ct, callers) in prof.stats.items():
        rows.append({
            "file": fn,
            "line": line,
            "name": name,
            "calls": cc,
            "self": tt,
            "cum": ct,
        })
    with open(spool, "w") as f:
        json.dump(rows, f)

sys.exit(code)
`
