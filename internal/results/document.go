// Package results models the RESULTS.md document: a link to the benchmark
// repository, a description of what was measured, and a table of results
// keyed by version label (v0, v1, v2, ...).
package results

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Document is a parsed RESULTS.md.
type Document struct {
	Title       string // first-level heading, usually "<RULE> (<language>)"
	RepoURL     string // link to the benchmark repository
	Description string // what was measured
	Table       Table
}

// Table is a version-keyed results table. Columns beyond the version label
// are benchmark-defined and preserved verbatim.
type Table struct {
	Columns []string // includes the leading "Version" column
	Rows    []Row
}

// Row is one table row. Cells are aligned with Table.Columns.
type Row struct {
	Version string // label like "v3"
	Cells   []string
}

var versionLabel = regexp.MustCompile(`^v(\d+)$`)

// ParseVersion extracts the numeric part of a version label.
func ParseVersion(label string) (int, bool) {
	m := versionLabel.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the document invariants: a repo link is present, the table
// exists, and every row is keyed by a well-formed version label with no
// duplicates.
func (d *Document) Validate() error {
	if d.RepoURL == "" {
		return fmt.Errorf("missing benchmark repository link")
	}
	if len(d.Table.Columns) == 0 {
		return fmt.Errorf("missing results table")
	}
	seen := make(map[string]bool, len(d.Table.Rows))
	for _, row := range d.Table.Rows {
		if _, ok := ParseVersion(row.Version); !ok {
			return fmt.Errorf("invalid version label %q", row.Version)
		}
		if seen[row.Version] {
			return fmt.Errorf("duplicate version label %q", row.Version)
		}
		seen[row.Version] = true
	}
	return nil
}

// SortRows orders table rows by ascending version number, reporting whether
// any row moved. Rows with labels that do not parse keep their relative
// order at the end.
func (d *Document) SortRows() bool {
	before := make([]string, len(d.Table.Rows))
	for i, row := range d.Table.Rows {
		before[i] = row.Version
	}
	sort.SliceStable(d.Table.Rows, func(i, j int) bool {
		vi, oki := ParseVersion(d.Table.Rows[i].Version)
		vj, okj := ParseVersion(d.Table.Rows[j].Version)
		if oki && okj {
			return vi < vj
		}
		return oki && !okj
	})
	for i, row := range d.Table.Rows {
		if row.Version != before[i] {
			return true
		}
	}
	return false
}

// LatestVersion returns the highest version label in the table, or "" when
// the table is empty.
func (d *Document) LatestVersion() string {
	best := -1
	label := ""
	for _, row := range d.Table.Rows {
		if v, ok := ParseVersion(row.Version); ok && v > best {
			best = v
			label = row.Version
		}
	}
	return label
}

// Upsert replaces the row with the same version label or appends a new one,
// keeping rows sorted.
func (d *Document) Upsert(row Row) {
	for i, existing := range d.Table.Rows {
		if existing.Version == row.Version {
			d.Table.Rows[i] = row
			return
		}
	}
	d.Table.Rows = append(d.Table.Rows, row)
	d.SortRows()
}
