// Package main provides the CLI entry point for hotpath, a command-execution
// profiler that runs an arbitrary command in an isolated child process and
// reports its hottest functions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.hotpath.dev/hotpath/collect"
	"go.hotpath.dev/hotpath/launch"
	"go.hotpath.dev/hotpath/log"
	"go.hotpath.dev/hotpath/render"
	"go.hotpath.dev/hotpath/selfprofile"
	"go.hotpath.dev/hotpath/target"
	"go.hotpath.dev/hotpath/version"
)

func main() {
	logCfg := log.NewConfig()
	profCfg := selfprofile.NewConfig()
	prof := profCfg.NewProfiler()

	var (
		topN    int
		modeStr string
	)

	rootCmd := &cobra.Command{
		Use:   "hotpath [flags] -- <command> [args...]",
		Short: "Profile a command and report its hottest functions",
		Long: `hotpath runs a command in an isolated child process, collects function-level
call statistics while it executes, and prints a ranked report of the slowest
and most-called functions.

Python commands are instrumented per function call; shell scripts and plain
executables fall back to whole-run timing. The target's stdout and stderr
stream through in real time; the report goes to stdout afterwards.`,
		Example: `  hotpath -- python3 train.py --epochs 3
  hotpath --top 25 -- python3 -m pytest tests/
  hotpath --mode shell -- ./deploy.sh staging`,
		Version:       version.Info(),
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			handler, err := logCfg.NewHandler(os.Stderr)
			if err != nil {
				return err
			}

			slog.SetDefault(slog.New(handler))

			return prof.Start()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, topN, modeStr)
		},
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&topN, "top", "n", launch.DefaultTopN, "number of entries per ranking section")
	flags.StringVar(&modeStr, "mode", string(target.ModeAuto),
		fmt.Sprintf("execution mode, one of: %s", target.GetAllModeStrings()))

	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	profCfg.RegisterFlags(rootCmd.PersistentFlags())

	registerCompletions(rootCmd, logCfg, profCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	stopErr := prof.Stop()
	if stopErr != nil {
		fmt.Fprintf(os.Stderr, "stopping self-profiler: %v\n", stopErr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run profiles one command and writes the report to stdout. A target that
// fails is still a successful profiling run; only launch and configuration
// errors propagate.
func run(ctx context.Context, args []string, topN int, modeStr string) error {
	mode, err := target.ParseMode(modeStr)
	if err != nil {
		return err
	}

	report, err := launch.Profile(ctx, args, topN, mode)
	if err != nil {
		if report == nil || !errors.Is(err, collect.ErrPartialResult) {
			return err
		}

		slog.Warn("collection interrupted, reporting partial statistics", slog.Any("error", err))
	}

	if report.ExitCode != 0 {
		slog.Info("target exited non-zero", slog.Int("exit_code", report.ExitCode))
	}

	_, err = fmt.Fprint(os.Stdout, render.RenderWidth(report, funcWidth()))
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

func funcWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return render.DefaultFuncWidth
	}

	return render.FuncWidthFor(w)
}

func registerCompletions(rootCmd *cobra.Command, logCfg *log.Config, profCfg *selfprofile.Config) {
	err := rootCmd.RegisterFlagCompletionFunc("mode",
		cobra.FixedCompletions(target.GetAllModeStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	err = logCfg.RegisterCompletions(rootCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	err = profCfg.RegisterCompletions(rootCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}
}
