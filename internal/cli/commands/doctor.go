package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/layout"
	"github.com/cursorcult/benchctl/internal/results"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a repository convention health check",
		Long: `Analyze the benchmark results repository for convention issues.

The doctor command checks the whole convention and reports:
- Repository summary (benchmarks, toolchains, results documents)
- Health checks grouped by category (Benchmarks, Results, Layout)
- Health score (0-100)
- Actionable recommendations`,
		Example: `  # Run health check
  benchctl doctor

  # Output as JSON
  benchctl doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			return runDoctor(cmdCtx)
		},
	}
	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         RepoSummary   `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// RepoSummary contains repository-level statistics.
type RepoSummary struct {
	Benchmarks int `json:"benchmarks"`
	Toolchains int `json:"toolchains"`
	Results    int `json:"results"`
	Rulesets   int `json:"rulesets"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

type doctorCheck struct {
	id       string
	name     string
	group    string
	severity string // "warn" or "error" when issues exist
	run      func(*doctorContext) []string
}

type doctorContext struct {
	repo       *layout.Repo
	benchmarks []*layout.Benchmark
	toolchains map[string][]*layout.Toolchain // by rule
}

var doctorChecks = []doctorCheck{
	{
		id: "B01", name: "Every benchmark has a toolchain", group: "Benchmarks", severity: "warn",
		run: func(dc *doctorContext) []string {
			var issues []string
			for _, b := range dc.benchmarks {
				if len(dc.toolchains[b.Rule]) == 0 {
					issues = append(issues, fmt.Sprintf("%s has no language directory with run_all.sh and generate_results.py", b.Rule))
				}
			}
			return issues
		},
	},
	{
		id: "B02", name: "Benchmark manifests parse", group: "Benchmarks", severity: "error",
		run: func(dc *doctorContext) []string {
			var issues []string
			for _, b := range dc.benchmarks {
				if _, err := layout.LoadManifest(b.ManifestPath()); err != nil {
					issues = append(issues, fmt.Sprintf("%s: %v", b.Rule, err))
				}
			}
			return issues
		},
	},
	{
		id: "R01", name: "Every toolchain has a RESULTS.md", group: "Results", severity: "warn",
		run: func(dc *doctorContext) []string {
			var issues []string
			for _, b := range dc.benchmarks {
				for _, tc := range dc.toolchains[b.Rule] {
					path := dc.repo.ResultsPath(b.Rule, tc.Language)
					if _, err := os.Stat(path); err != nil {
						issues = append(issues, fmt.Sprintf("missing %s", relToRoot(dc.repo, path)))
					}
				}
			}
			return issues
		},
	},
	{
		id: "R02", name: "Results documents are well formed", group: "Results", severity: "error",
		run: func(dc *doctorContext) []string {
			var issues []string
			for _, path := range existingResults(dc) {
				doc, err := results.ParseFile(path)
				if err != nil {
					issues = append(issues, fmt.Sprintf("%s: %v", relToRoot(dc.repo, path), err))
					continue
				}
				if err := doc.Validate(); err != nil {
					issues = append(issues, fmt.Sprintf("%s: %v", relToRoot(dc.repo, path), err))
				}
			}
			return issues
		},
	},
	{
		id: "R03", name: "Results documents have a description", group: "Results", severity: "warn",
		run: func(dc *doctorContext) []string {
			var issues []string
			for _, path := range existingResults(dc) {
				doc, err := results.ParseFile(path)
				if err != nil {
					continue // reported by R02
				}
				if doc.Description == "" {
					issues = append(issues, fmt.Sprintf("%s has no description", relToRoot(dc.repo, path)))
				}
			}
			return issues
		},
	},
	{
		id: "L01", name: "No orphaned rules/ entries", group: "Layout", severity: "warn",
		run: func(dc *doctorContext) []string {
			known := make(map[string]bool, len(dc.benchmarks))
			for _, b := range dc.benchmarks {
				known[b.Rule] = true
			}
			var issues []string
			for _, rule := range ruleDirs(dc.repo) {
				if !known[rule] {
					issues = append(issues, fmt.Sprintf("rules/%s has no matching benchmarks/%s submodule", rule, rule))
				}
			}
			return issues
		},
	},
}

func runDoctor(cmdCtx *CommandContext) error {
	repo := layout.New(cmdCtx.Cfg.RepoRoot)
	r := cmdCtx.Renderer

	benchmarks, err := repo.Discover()
	if err != nil {
		return err
	}
	if len(benchmarks) == 0 {
		r.Warning("No benchmarks found under benchmarks/")
		return nil
	}

	dc := &doctorContext{
		repo:       repo,
		benchmarks: benchmarks,
		toolchains: make(map[string][]*layout.Toolchain, len(benchmarks)),
	}
	for _, b := range benchmarks {
		toolchains, err := repo.Toolchains(b)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", b.Rule, err)
		}
		dc.toolchains[b.Rule] = toolchains
	}

	out := buildDoctorOutput(dc)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(dc *doctorContext) *DoctorOutput {
	summary := RepoSummary{Benchmarks: len(dc.benchmarks)}
	for _, b := range dc.benchmarks {
		toolchains := dc.toolchains[b.Rule]
		summary.Toolchains += len(toolchains)
		for _, tc := range toolchains {
			if _, err := os.Stat(dc.repo.ResultsPath(b.Rule, tc.Language)); err == nil {
				summary.Results++
			}
		}
	}
	summary.Rulesets = len(rulesetDirs(dc.repo))

	healthChecks := make([]HealthCheck, 0, len(doctorChecks))
	issueCount := 0
	for _, check := range doctorChecks {
		details := check.run(dc)
		status := "pass"
		if len(details) > 0 {
			status = check.severity
		}
		issueCount += len(details)
		healthChecks = append(healthChecks, HealthCheck{
			ID:         check.id,
			Name:       check.name,
			Group:      check.group,
			Status:     status,
			IssueCount: len(details),
			Details:    details,
		})
	}

	sort.SliceStable(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].ID < healthChecks[j].ID
	})

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    healthChecks,
		Score:           calculateHealthScore(healthChecks, summary.Benchmarks),
		Recommendations: generateRecommendations(healthChecks),
		IssueCount:      issueCount,
	}
}

// calculateHealthScore computes a health score from 0-100. With more
// benchmarks, each individual issue has less impact.
func calculateHealthScore(checks []HealthCheck, benchmarkCount int) int {
	score := 100.0

	basePenalty := 10.0
	if benchmarkCount > 10 {
		basePenalty = 5.0
	}
	if benchmarkCount > 50 {
		basePenalty = 2.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	return int(score)
}

func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := recommendationFor(check.ID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

func recommendationFor(id string) string {
	switch id {
	case "B01":
		return "Add a <language>/run_all.sh and generate_results.py to benchmarks without a toolchain"
	case "B02":
		return "Fix the broken benchmark.yaml manifests"
	case "R01":
		return "Run 'benchctl generate --all' to produce missing RESULTS.md files"
	case "R02":
		return "Regenerate malformed results documents; tables need unique v0, v1, ... version labels and a repo link"
	case "R03":
		return "Add a description to the benchmark manifest so results documents carry one"
	case "L01":
		return "Remove stale rules/ directories or restore the matching benchmark submodule"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Benchmark Repository Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Repository Summary"))
	r.Printf("   Benchmarks: %d | Toolchains: %d | Results: %d | Rulesets: %d\n",
		out.Summary.Benchmarks, out.Summary.Toolchains, out.Summary.Results, out.Summary.Rulesets)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + currentGroup))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.ID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# Benchmark Repository Health Report")
	r.Println("")

	r.Println("## Repository Summary")
	r.Println("")
	r.Printf("- **Benchmarks**: %d\n", out.Summary.Benchmarks)
	r.Printf("- **Toolchains**: %d\n", out.Summary.Toolchains)
	r.Printf("- **Results documents**: %d\n", out.Summary.Results)
	r.Printf("- **Rulesets**: %d\n", out.Summary.Rulesets)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + currentGroup)
			r.Println("")
		}

		status := strings.ToUpper(check.Status)
		if check.Status == "pass" {
			status = "PASS"
		}

		r.Printf("- **[%s]** %s: %s", status, check.ID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func existingResults(dc *doctorContext) []string {
	var paths []string
	for _, b := range dc.benchmarks {
		for _, tc := range dc.toolchains[b.Rule] {
			path := dc.repo.ResultsPath(b.Rule, tc.Language)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

func relToRoot(repo *layout.Repo, path string) string {
	if rel, err := repo.Rel(path); err == nil {
		return rel
	}
	return path
}

func ruleDirs(repo *layout.Repo) []string {
	return namedDirs(repo.Path(layout.RulesDir))
}

func rulesetDirs(repo *layout.Repo) []string {
	return namedDirs(repo.Path(layout.RulesetsDir))
}

func namedDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names
}
