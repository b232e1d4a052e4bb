package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawDiff(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "single gitlink bump",
			raw:  ":160000 160000 abc1234 def5678 M\tbenchmarks/TDD\n",
			want: []string{"benchmarks/TDD"},
		},
		{
			name: "mixed diff keeps only gitlinks",
			raw: ":100644 100644 1111111 2222222 M\trules/TDD/python/RESULTS.md\n" +
				":160000 160000 abc1234 def5678 M\tbenchmarks/TDD\n" +
				":160000 160000 aaa0000 bbb1111 M\t_metrics\n",
			want: []string{"benchmarks/TDD", "_metrics"},
		},
		{
			name: "added submodule is not a pointer bump",
			raw:  ":000000 160000 0000000 def5678 A\tbenchmarks/NEW\n",
			want: nil,
		},
		{
			name: "removed submodule is not a pointer bump",
			raw:  ":160000 000000 abc1234 0000000 D\tbenchmarks/OLD\n",
			want: nil,
		},
		{
			name: "empty diff",
			raw:  "",
			want: nil,
		},
		{
			name: "garbage lines are skipped",
			raw:  "not a diff line\n:160000\tshort-meta\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := ParseRawDiff(tt.raw)
			var paths []string
			for _, c := range changes {
				paths = append(paths, c.Path)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

// initTestRepo creates a git repo with one committed file and returns its
// path. Skips when git is unavailable.
func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestDiffClean(t *testing.T) {
	dir := initTestRepo(t)
	client := NewClient(dir)
	ctx := context.Background()

	clean, err := client.DiffClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0644))

	clean, err = client.DiffClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestRevParse(t *testing.T) {
	dir := initTestRepo(t)
	client := NewClient(dir)

	sha, err := client.RevParse(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Len(t, sha, 40)
}

func TestRevParseUnknownRef(t *testing.T) {
	dir := initTestRepo(t)
	client := NewClient(dir)

	_, err := client.RevParse(context.Background(), "no-such-ref")
	require.Error(t, err)
}

func TestChangedPaths(t *testing.T) {
	dir := initTestRepo(t)
	client := NewClient(dir)
	ctx := context.Background()

	base, err := client.RevParse(ctx, "HEAD")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x\n"), 0644))
	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	commit := exec.Command("git", "-c", "user.name=test", "-c", "user.email=test@example.com", "commit", "-q", "-m", "add file")
	commit.Dir = dir
	require.NoError(t, commit.Run())

	head, err := client.RevParse(ctx, "HEAD")
	require.NoError(t, err)

	changed, err := client.ChangedPaths(ctx, base, head)
	require.NoError(t, err)
	assert.True(t, changed["new.txt"])
	assert.False(t, changed["README.md"])
}
