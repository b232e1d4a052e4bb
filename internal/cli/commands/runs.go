package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cursorcult/benchctl/internal/cli/output"
	"github.com/cursorcult/benchctl/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var (
		limit   int
		details bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent generation runs from the local ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()
			return runRuns(cmdCtx, limit, details)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&details, "details", false, "Show per-toolchain outcomes for each run")

	return cmd
}

func runRuns(cmdCtx *CommandContext, limit int, details bool) error {
	store := cmdCtx.Engine.Store()
	r := cmdCtx.Renderer

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		type runJSON struct {
			*state.Run
			Toolchains []*state.ToolchainRun `json:"toolchains,omitempty"`
		}
		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			rj := runJSON{Run: run}
			if details {
				if rj.Toolchains, err = store.GetToolchainRunsForRun(run.ID); err != nil {
					return err
				}
			}
			out = append(out, rj)
		}
		return r.JSON(out)
	}

	header := []string{"Run", "Trigger", "Status", "Started", "Duration", "Error"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Trigger,
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(run),
			run.Error,
		})
	}
	r.Table(header, rows)

	if !details {
		return nil
	}
	for _, run := range runs {
		toolchains, err := store.GetToolchainRunsForRun(run.ID)
		if err != nil {
			return err
		}
		if len(toolchains) == 0 {
			continue
		}
		r.Printf("\nRun %s:\n", shortID(run.ID))
		for _, tc := range toolchains {
			note := fmt.Sprintf("%d iterations, %dms", tc.Iterations, tc.DurationMS)
			if tc.Error != "" {
				note = tc.Error
			}
			r.StatusLine(tc.Rule+"/"+tc.Language, string(tc.Status), note)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
