package selfprofile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Profiler controls the lifecycle of the hotpath process's own runtime
// profiling session. This is separate from target profiling: it measures
// the profiler, not the command under profile.
//
// Call [Profiler.Start] before the run and [Profiler.Stop] after it to
// write all enabled profiles.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	cpuFile *os.File
	Config
}

// Start configures the memory profiling rate and starts CPU profiling if
// enabled.
func (c *Profiler) Start() error {
	runtime.MemProfileRate = c.MemProfileRate

	if c.CPUProfile != "" {
		f, err := os.Create(c.CPUProfile) //nolint:gosec // Profile path from CLI flag is expected.
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}

		c.cpuFile = f

		err = pprof.StartCPUProfile(f)
		if err != nil {
			must(c.cpuFile.Close())

			c.cpuFile = nil

			return fmt.Errorf("starting CPU profile: %w", err)
		}
	}

	return nil
}

// Stop stops CPU profiling and writes the heap snapshot if enabled.
func (c *Profiler) Stop() error {
	if c.cpuFile != nil {
		pprof.StopCPUProfile()

		err := c.cpuFile.Close()
		if err != nil {
			return fmt.Errorf("closing CPU profile: %w", err)
		}
	}

	if c.HeapProfile != "" {
		err := c.writeHeapProfile()
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Profiler) writeHeapProfile() error {
	f, err := os.Create(c.HeapProfile) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}

	prof := pprof.Lookup("heap")
	if prof == nil {
		must(f.Close())

		return fmt.Errorf("unknown profile: heap")
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		must(f.Close())

		return fmt.Errorf("write heap profile: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}

	return nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
