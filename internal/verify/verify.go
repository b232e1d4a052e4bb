// Package verify implements the pull request policy: every submodule
// pointer bump must be accompanied by a matching RESULTS.md update.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cursorcult/benchctl/internal/gitx"
	"github.com/cursorcult/benchctl/internal/layout"
)

// FailureKind classifies a policy violation.
type FailureKind string

const (
	// FailureMetrics means the shared _metrics submodule was bumped
	// without any rules/**/RESULTS.md update.
	FailureMetrics FailureKind = "metrics"
	// FailureRule means a benchmarks/<RULE> submodule was bumped without
	// a matching rules/<RULE>/**/RESULTS.md update.
	FailureRule FailureKind = "rule"
	// FailureRuleset means a ruleset benchmark was bumped without a
	// matching rulesets/<RULESET>/**/RESULTS.md update.
	FailureRuleset FailureKind = "ruleset"
)

// Failure is one unmet policy requirement.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Path    string      `json:"path"` // the bumped submodule path
	Message string      `json:"message"`
}

// Report is the outcome of a verification.
type Report struct {
	GitlinksChanged int       `json:"gitlinks_changed"`
	Failures        []Failure `json:"failures,omitempty"`
}

// OK reports whether the policy is satisfied.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Verifier checks gitlink changes against changed paths. RulesetDirExists
// is consulted so ruleset benchmarks can satisfy the policy through
// rulesets/ instead of rules/; the default looks at the filesystem.
type Verifier struct {
	Root string
}

// New returns a Verifier for a repo root.
func New(root string) *Verifier {
	return &Verifier{Root: root}
}

// Check applies the policy to a set of gitlink changes and changed paths.
func (v *Verifier) Check(gitlinks []gitx.GitlinkChange, changed map[string]bool) *Report {
	report := &Report{GitlinksChanged: len(gitlinks)}

	for _, gl := range gitlinks {
		switch {
		case gl.Path == layout.MetricsDir:
			if !anyResultsUpdate(changed, layout.RulesDir+"/") {
				report.Failures = append(report.Failures, Failure{
					Kind:    FailureMetrics,
					Path:    gl.Path,
					Message: "Changed _metrics submodule but did not update any rules/**/RESULTS.md",
				})
			}

		case strings.HasPrefix(gl.Path, layout.BenchmarksDir+"/"):
			rule, ok := layout.RuleFromSubmodule(gl.Path)
			if !ok {
				continue
			}
			rulePrefix := layout.RulesDir + "/" + rule + "/"
			if anyResultsUpdate(changed, rulePrefix) {
				continue
			}
			// A ruleset benchmark records its results under rulesets/
			// instead of rules/.
			if v.isRuleset(rule) {
				rulesetPrefix := layout.RulesetsDir + "/" + rule + "/"
				if anyResultsUpdate(changed, rulesetPrefix) {
					continue
				}
				report.Failures = append(report.Failures, Failure{
					Kind:    FailureRuleset,
					Path:    gl.Path,
					Message: fmt.Sprintf("Changed %s submodule but did not update any %s*/RESULTS.md", gl.Path, rulesetPrefix),
				})
				continue
			}
			report.Failures = append(report.Failures, Failure{
				Kind:    FailureRule,
				Path:    gl.Path,
				Message: fmt.Sprintf("Changed %s submodule but did not update any %s*/RESULTS.md", gl.Path, rulePrefix),
			})
		}
	}

	return report
}

// anyResultsUpdate reports whether any changed path is a RESULTS.md under
// the given repo-relative prefix.
func anyResultsUpdate(changed map[string]bool, prefix string) bool {
	for p := range changed {
		if strings.HasPrefix(p, prefix) && strings.HasSuffix(p, "/"+layout.ResultsFile) {
			return true
		}
	}
	return false
}

// isRuleset reports whether a name has a results home under rulesets/.
func (v *Verifier) isRuleset(name string) bool {
	if v.Root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(v.Root, layout.RulesetsDir, name))
	return err == nil && info.IsDir()
}
