package results

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the document as markdown in the conventional RESULTS.md
// shape: heading, repository link, description, results table.
func (d *Document) Render(w io.Writer) error {
	if d.Title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n\n", d.Title); err != nil {
			return err
		}
	}
	if d.RepoURL != "" {
		if _, err := fmt.Fprintf(w, "Benchmark: [%s](%s)\n\n", d.RepoURL, d.RepoURL); err != nil {
			return err
		}
	}
	if d.Description != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", d.Description); err != nil {
			return err
		}
	}

	if len(d.Table.Columns) == 0 {
		return fmt.Errorf("cannot render document without a results table")
	}

	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(d.Table.Columns, " | ")); err != nil {
		return err
	}
	seps := make([]string, len(d.Table.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | ")); err != nil {
		return err
	}
	for _, row := range d.Table.Rows {
		cells := make([]string, len(d.Table.Columns))
		for i := range cells {
			if i < len(row.Cells) {
				cells[i] = row.Cells[i]
			}
		}
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | ")); err != nil {
			return err
		}
	}
	return nil
}
