// Package layout models the directory convention of a benchmark results
// repository: benchmark submodules under benchmarks/<RULE>/, generated
// results under rules/<RULE>/<language>/RESULTS.md, and aggregated ruleset
// results under rulesets/<RULESET>/<language>/RESULTS.md.
package layout

import (
	"os"
	"path/filepath"
	"sort"
)

const (
	// BenchmarksDir holds one git submodule per benchmarked rule.
	BenchmarksDir = "benchmarks"
	// RulesDir holds generated per-rule results.
	RulesDir = "rules"
	// RulesetsDir holds generated per-ruleset results.
	RulesetsDir = "rulesets"
	// MetricsDir is the shared metrics submodule; bumping it invalidates
	// every benchmark's results.
	MetricsDir = "_metrics"
	// RunsDir stores raw per-iteration runner output. Not tracked by git.
	RunsDir = ".runs"

	// ResultsFile is the results document name inside a language dir.
	ResultsFile = "RESULTS.md"

	runnerScript    = "run_all.sh"
	runnerBare      = "run_all"
	aggregatorName  = "generate_results.py"
	manifestName    = "benchmark.yaml"
	gitlinkEntry    = ".git"
	submodulePrefix = BenchmarksDir + "/"
)

// Repo is a benchmark results repository rooted at a filesystem path.
type Repo struct {
	Root string
}

// New returns a Repo rooted at root.
func New(root string) *Repo {
	return &Repo{Root: root}
}

// Benchmark is one rule benchmark checked out as a submodule.
type Benchmark struct {
	Rule     string // submodule directory name, e.g. "TDD"
	Dir      string // absolute path to benchmarks/<Rule>
	Manifest *Manifest
}

// ManifestPath returns the benchmark.yaml path inside the benchmark.
func (b *Benchmark) ManifestPath() string {
	return filepath.Join(b.Dir, manifestName)
}

// Toolchain is a per-language runner and aggregator pair inside a benchmark.
type Toolchain struct {
	Language   string
	Dir        string // language directory, the working dir for both commands
	Runner     string // path to run_all.sh (or run_all)
	Aggregator string // path to generate_results.py
}

// Discover lists rule benchmarks: direct children of benchmarks/ that are
// submodule checkouts (contain a .git entry). A missing benchmarks/ dir is
// not an error, it just means there is nothing to run.
func (r *Repo) Discover() ([]*Benchmark, error) {
	benchRoot := filepath.Join(r.Root, BenchmarksDir)
	entries, err := os.ReadDir(benchRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var benchmarks []*Benchmark
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(benchRoot, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, gitlinkEntry)); err != nil {
			continue
		}
		b := &Benchmark{Rule: entry.Name(), Dir: dir}
		b.Manifest, _ = LoadManifest(filepath.Join(dir, manifestName))
		benchmarks = append(benchmarks, b)
	}

	sort.Slice(benchmarks, func(i, j int) bool {
		return benchmarks[i].Rule < benchmarks[j].Rule
	})
	return benchmarks, nil
}

// Find returns the discovered benchmark with the given rule name, or nil.
func (r *Repo) Find(rule string) (*Benchmark, error) {
	benchmarks, err := r.Discover()
	if err != nil {
		return nil, err
	}
	for _, b := range benchmarks {
		if b.Rule == rule {
			return b, nil
		}
	}
	return nil, nil
}

// Toolchains lists per-language toolchains inside a benchmark. A language
// dir qualifies only when it carries both a runner and an aggregator;
// anything else is ignored.
func (r *Repo) Toolchains(b *Benchmark) ([]*Toolchain, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return nil, err
	}

	var toolchains []*Toolchain
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(b.Dir, entry.Name())

		runner := filepath.Join(dir, runnerScript)
		if _, err := os.Stat(runner); err != nil {
			runner = filepath.Join(dir, runnerBare)
			if _, err := os.Stat(runner); err != nil {
				continue
			}
		}

		aggregator := filepath.Join(dir, aggregatorName)
		if _, err := os.Stat(aggregator); err != nil {
			continue
		}

		toolchains = append(toolchains, &Toolchain{
			Language:   entry.Name(),
			Dir:        dir,
			Runner:     runner,
			Aggregator: aggregator,
		})
	}

	sort.Slice(toolchains, func(i, j int) bool {
		return toolchains[i].Language < toolchains[j].Language
	})
	return toolchains, nil
}

// Path joins repo-relative path elements onto the root.
func (r *Repo) Path(elem ...string) string {
	return filepath.Join(append([]string{r.Root}, elem...)...)
}

// Rel converts an absolute path inside the repo to a repo-relative one.
func (r *Repo) Rel(path string) (string, error) {
	return filepath.Rel(r.Root, path)
}

// ResultsPath returns rules/<rule>/<language>/RESULTS.md under the repo root.
func (r *Repo) ResultsPath(rule, language string) string {
	return filepath.Join(r.Root, RulesDir, rule, language, ResultsFile)
}

// RulesetResultsPath returns rulesets/<ruleset>/<language>/RESULTS.md.
func (r *Repo) RulesetResultsPath(ruleset, language string) string {
	return filepath.Join(r.Root, RulesetsDir, ruleset, language, ResultsFile)
}

// RunsPath returns .runs/<rule>/<language>, the raw iteration output dir.
func (r *Repo) RunsPath(rule, language string) string {
	return filepath.Join(r.Root, RunsDir, rule, language)
}

// EnsureResultsDir creates the rules/<rule>/<language> directory and returns
// the RESULTS.md path inside it.
func (r *Repo) EnsureResultsDir(rule, language string) (string, error) {
	dir := filepath.Join(r.Root, RulesDir, rule, language)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return filepath.Join(dir, ResultsFile), nil
}

// SubmodulePath returns the repo-relative submodule path for a rule,
// e.g. "benchmarks/TDD".
func SubmodulePath(rule string) string {
	return submodulePrefix + rule
}

// RuleFromSubmodule extracts the rule name from a repo-relative submodule
// path. The second return is false when the path is not a rule benchmark
// submodule.
func RuleFromSubmodule(path string) (string, bool) {
	if len(path) <= len(submodulePrefix) || path[:len(submodulePrefix)] != submodulePrefix {
		return "", false
	}
	rule := path[len(submodulePrefix):]
	// Only direct children are benchmark submodules.
	if filepath.Base(rule) != rule {
		return "", false
	}
	return rule, true
}
