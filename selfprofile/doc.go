// Package selfprofile adds runtime/pprof profiling of the hotpath process
// itself, through command-line flags. It exists so the measurement overhead
// hotpath adds around a target can itself be inspected; it never touches
// the target's statistics.
//
// Typical usage creates a [Config], registers flags, then wraps command
// execution with the [Profiler] lifecycle:
//
//	cfg := selfprofile.NewConfig()
//	p := cfg.NewProfiler()
//
//	rootCmd := &cobra.Command{
//	    PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
//	        return p.Start()
//	    },
//	}
//
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	err := rootCmd.Execute()
//	stopErr := p.Stop()
//
// Users can then enable profiling via flags like --self-cpu-profile=cpu.prof.
package selfprofile
