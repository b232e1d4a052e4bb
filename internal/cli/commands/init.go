package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/layout"
)

const initConfigTemplate = `# benchctl configuration
# https://github.com/CursorCult

# Runner iterations per toolchain
runs: 1

# Benchmarks generated concurrently
concurrency: 2

# Python interpreter used for aggregators
python: python3
`

const initReadmeTemplate = `# Benchmark Results

Benchmarks live as git submodules under ` + "`benchmarks/<RULE>/`" + `.
Their measured outcomes are recorded in
` + "`rules/<RULE>/<language>/RESULTS.md`" + ` (and
` + "`rulesets/<RULESET>/<language>/RESULTS.md`" + ` for rulesets).

Add a benchmark:

    git submodule add https://github.com/CursorCult/_benchmark_<RULE>.git benchmarks/<RULE>

Regenerate results after bumping a submodule pointer:

    benchctl generate --base origin/main --head HEAD
`

const initGitignoreTemplate = `.runs/
.benchctl/
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a new benchmark results repository",
		Long: `Create the directory convention for a benchmark results repository:
benchmarks/, rules/, rulesets/, a benchctl.yaml config, a README, and a
.gitignore for runner output. Existing files are left alone unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	for _, sub := range []string{layout.BenchmarksDir, layout.RulesDir, layout.RulesetsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	files := []struct {
		name    string
		content string
	}{
		{"benchctl.yaml", initConfigTemplate},
		{"README.md", initReadmeTemplate},
		{".gitignore", initGitignoreTemplate},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			r.Warning(fmt.Sprintf("%s exists, skipping (use --force to overwrite)", f.name))
			continue
		}
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		r.Success("wrote " + f.name)
	}

	r.Println("")
	r.Println("Repository scaffolded. Next steps:")
	r.Println("  1. git init && git add . (if not already a repository)")
	r.Println("  2. git submodule add <url> benchmarks/<RULE>")
	r.Println("  3. benchctl generate --all")
	return nil
}
