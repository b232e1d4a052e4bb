package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	headingPattern = regexp.MustCompile(`^#\s+(.*)$`)
	linkPattern    = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)
	bareURLPattern = regexp.MustCompile(`https?://\S+`)
)

// ParseFile reads and parses a RESULTS.md from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a RESULTS.md document. The expected shape is a heading, a
// repository link, free-form description prose, and a markdown table whose
// first column holds version labels. Prose ordering is forgiving; the table
// is required.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	var descLines []string
	inTable := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case inTable && strings.HasPrefix(trimmed, "|"):
			if isSeparatorRow(trimmed) {
				continue
			}
			cells := splitTableRow(trimmed)
			if len(cells) == 0 {
				continue
			}
			doc.Table.Rows = append(doc.Table.Rows, Row{Version: cells[0], Cells: cells})

		case inTable:
			inTable = false

		// Only the first pipe block is the results table; later ones are
		// kept as description prose rather than merged into it.
		case strings.HasPrefix(trimmed, "|") && len(doc.Table.Columns) == 0:
			cells := splitTableRow(trimmed)
			if len(cells) == 0 {
				continue
			}
			doc.Table.Columns = cells
			inTable = true

		case doc.Title == "" && headingPattern.MatchString(trimmed):
			doc.Title = headingPattern.FindStringSubmatch(trimmed)[1]

		case doc.RepoURL == "" && linkPattern.MatchString(trimmed):
			doc.RepoURL = linkPattern.FindStringSubmatch(trimmed)[1]

		case doc.RepoURL == "" && bareURLPattern.MatchString(trimmed):
			doc.RepoURL = strings.TrimSuffix(bareURLPattern.FindString(trimmed), ".")

		case trimmed != "" && !strings.HasPrefix(trimmed, "#"):
			descLines = append(descLines, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc.Description = strings.Join(descLines, "\n")
	if len(doc.Table.Columns) == 0 {
		return nil, fmt.Errorf("no results table found")
	}
	return doc, nil
}

// isSeparatorRow matches the |---|---| line under a table header.
func isSeparatorRow(line string) bool {
	stripped := strings.Trim(line, "| ")
	if stripped == "" {
		return false
	}
	for _, cell := range strings.Split(stripped, "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" || strings.Trim(cell, ":-") != "" {
			return false
		}
	}
	return true
}

func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// Drop a trailing empty cell from "| a | b |" style rows.
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
