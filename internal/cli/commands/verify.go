package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/gitx"
	"github.com/cursorcult/benchctl/internal/verify"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	var (
		base string
		head string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify that submodule bumps have matching RESULTS.md updates",
		Long: `Verify the pull request policy between two commits.

Every benchmarks/<RULE> submodule pointer bump must come with an update
to a rules/<RULE>/<language>/RESULTS.md file (rulesets/<RULE>/... for
ruleset benchmarks). A bump of the shared _metrics submodule requires
an update to at least one RESULTS.md anywhere under rules/.

Exit codes: 0 when the policy holds, 1 on violations, 2 when the base
or head commit is missing.`,
		Example: `  # In CI, with BASE_SHA and HEAD_SHA exported
  benchctl verify

  # Locally, against the main branch
  benchctl verify --base origin/main --head HEAD`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			return runVerify(cmd, cmdCtx, base, head)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Base commit (env: BASE_SHA)")
	cmd.Flags().StringVar(&head, "head", "", "Head commit (env: HEAD_SHA)")

	return cmd
}

func runVerify(cmd *cobra.Command, cmdCtx *CommandContext, base, head string) error {
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	if base == "" {
		base = os.Getenv("BASE_SHA")
	}
	if head == "" {
		head = os.Getenv("HEAD_SHA")
	}
	if base == "" || head == "" {
		return &ExitError{Code: 2, Err: errors.New("missing base/head commits; pass --base and --head or set BASE_SHA and HEAD_SHA")}
	}

	git := gitx.NewClient(cmdCtx.Cfg.RepoRoot)
	gitlinks, err := git.ChangedGitlinks(ctx, base, head)
	if err != nil {
		return err
	}
	changed, err := git.ChangedPaths(ctx, base, head)
	if err != nil {
		return err
	}

	report := verify.New(cmdCtx.Cfg.RepoRoot).Check(gitlinks, changed)

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(report); err != nil {
			return err
		}
	} else {
		renderVerifyReport(r, report)
	}

	if !report.OK() {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d policy violations", len(report.Failures))}
	}
	return nil
}

func renderVerifyReport(r *output.Renderer, report *verify.Report) {
	if report.GitlinksChanged == 0 {
		r.Println("No submodule pointer changes between base and head.")
		return
	}

	r.Printf("Submodule pointer changes: %d\n", report.GitlinksChanged)
	if report.OK() {
		r.Success("All submodule bumps have matching RESULTS.md updates")
		return
	}
	for _, f := range report.Failures {
		r.Error(f.Message)
	}
}
