// Package gitx shells out to git for the small amount of plumbing the tool
// needs: diffing submodule pointers between two commits and checking the
// working tree.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// gitlinkMode is the tree entry mode git assigns to submodule pointers.
const gitlinkMode = "160000"

// Client runs git commands in a fixed repository root.
type Client struct {
	dir string
}

// NewClient returns a Client rooted at dir.
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// GitlinkChange is a submodule pointer that differs between two commits.
type GitlinkChange struct {
	Path string // repo-relative submodule path, e.g. "benchmarks/TDD"
}

// ChangedGitlinks returns submodule pointers that changed between base and
// head. Only entries that are gitlinks on both sides count; added or removed
// submodules are a layout change, not a pointer bump.
func (c *Client) ChangedGitlinks(ctx context.Context, base, head string) ([]GitlinkChange, error) {
	out, err := c.output(ctx, "diff", "--raw", base, head)
	if err != nil {
		return nil, err
	}
	return ParseRawDiff(out), nil
}

// ChangedPaths returns the set of paths that differ between base and head.
func (c *Client) ChangedPaths(ctx context.Context, base, head string) (map[string]bool, error) {
	out, err := c.output(ctx, "diff", "--name-only", base, head)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			paths[p] = true
		}
	}
	return paths, nil
}

// DiffClean reports whether the working tree matches HEAD for tracked files.
func (c *Client) DiffClean(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--exit-code", "--quiet")
	cmd.Dir = c.dir
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("git diff: %w", err)
}

// RevParse resolves a ref to a commit SHA.
func (c *Client) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := c.output(ctx, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return string(out), nil
}

// ParseRawDiff extracts gitlink changes from `git diff --raw` output.
// A raw line looks like:
//
//	:160000 160000 abc123 def456 M\tbenchmarks/TDD
//
// Lines without a tab separator or with fewer than three metadata fields
// are skipped.
func ParseRawDiff(raw string) []GitlinkChange {
	var changes []GitlinkChange
	for _, line := range strings.Split(raw, "\n") {
		meta, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 3 {
			continue
		}
		oldMode := strings.TrimPrefix(fields[0], ":")
		newMode := fields[1]
		if oldMode != gitlinkMode || newMode != gitlinkMode {
			continue
		}
		changes = append(changes, GitlinkChange{Path: strings.TrimSpace(path)})
	}
	return changes
}
