package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/layout"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List benchmarks and their toolchains",
		Long: `List every benchmark submodule under benchmarks/ with its
discovered toolchains and whether a RESULTS.md exists for each.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			return runList(cmdCtx)
		},
	}
	return cmd
}

type benchmarkListing struct {
	Rule        string   `json:"rule"`
	RepoURL     string   `json:"repo_url"`
	Description string   `json:"description,omitempty"`
	Languages   []string `json:"languages"`
	Results     []string `json:"results"` // languages with an existing RESULTS.md
}

func runList(cmdCtx *CommandContext) error {
	repo := layout.New(cmdCtx.Cfg.RepoRoot)
	r := cmdCtx.Renderer

	benchmarks, err := repo.Discover()
	if err != nil {
		return err
	}
	if len(benchmarks) == 0 {
		r.Println("No benchmarks found under benchmarks/.")
		return nil
	}

	var listings []benchmarkListing
	for _, b := range benchmarks {
		toolchains, err := repo.Toolchains(b)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", b.Rule, err)
		}

		l := benchmarkListing{
			Rule:    b.Rule,
			RepoURL: layout.DefaultRepoURL(b.Rule),
		}
		if b.Manifest != nil {
			if b.Manifest.RepoURL != "" {
				l.RepoURL = b.Manifest.RepoURL
			}
			l.Description = b.Manifest.Description
		}
		for _, tc := range toolchains {
			l.Languages = append(l.Languages, tc.Language)
			if _, err := os.Stat(repo.ResultsPath(b.Rule, tc.Language)); err == nil {
				l.Results = append(l.Results, tc.Language)
			}
		}
		listings = append(listings, l)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(listings)
	}

	header := []string{"Rule", "Toolchains", "Results", "Description"}
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		toolchains := strings.Join(l.Languages, ", ")
		if toolchains == "" {
			toolchains = "(none)"
		}
		results := fmt.Sprintf("%d/%d", len(l.Results), len(l.Languages))
		rows = append(rows, []string{l.Rule, toolchains, results, l.Description})
	}
	r.Table(header, rows)
	r.Printf("\n%d benchmarks\n", len(listings))
	return nil
}
