// Package cli provides the command-line interface for benchctl.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/commands"
	"github.com/cursorcult/benchctl/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "benchctl",
		Short: "benchctl - benchmark results repository tooling",
		Long: `benchctl manages a benchmark results convention repository.

Benchmarks live as git submodules under benchmarks/<RULE>/, and their
measured outcomes are recorded as version-keyed tables in
rules/<RULE>/<language>/RESULTS.md. benchctl regenerates results for
benchmarks whose submodule pointers changed, verifies that pull requests
keep results in sync with submodule bumps, and reports on the health of
the convention.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
				fmt.Fprintf(os.Stderr, "Repository root: %s\n", cfg.RepoRoot)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./benchctl.yaml)")
	rootCmd.PersistentFlags().String("repo-root", "", "Benchmark results repository root (default: auto-detected)")
	rootCmd.PersistentFlags().String("state-path", "", "Path to the run ledger database")
	rootCmd.PersistentFlags().Int("runs", config.DefaultRuns, "Runner iterations per toolchain")
	rootCmd.PersistentFlags().Int("concurrency", config.DefaultConcurrency, "Benchmarks to generate concurrently")
	rootCmd.PersistentFlags().String("python", config.DefaultPython, "Python interpreter for aggregators")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewInitCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
