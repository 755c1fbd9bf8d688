package adapter

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	m "github.com/0x1david/sqint/internal/model"
)

// ErrGitUnavailable means incremental mode was requested but the changed-file
// set cannot be computed: git is missing, the target is not a repository, or
// the baseline revision does not resolve. This is fatal for the run; falling
// back to a full scan would silently contradict what the user asked for.
var ErrGitUnavailable = errors.New("git incremental data unavailable")

// GitAdapter answers "which files changed since the baseline revision".
type GitAdapter interface {
	ChangedFiles(baseline string, includeStaged bool) (map[m.Path]struct{}, error)
}

// ExecGitAdapter shells out to the git binary. Paths in the returned set are
// absolute, matching the selector's output so intersection is a map lookup.
type ExecGitAdapter struct {
	dir string
}

// NewExecGitAdapter creates a git adapter rooted at dir.
func NewExecGitAdapter(dir string) *ExecGitAdapter {
	return &ExecGitAdapter{dir: dir}
}

// ChangedFiles lists files differing between the working tree and baseline.
// With includeStaged, files changed only in the index are added as well.
func (g *ExecGitAdapter) ChangedFiles(baseline string, includeStaged bool) (map[m.Path]struct{}, error) {
	root, err := g.run("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}

	repoRoot := strings.TrimSpace(root)

	out, err := g.run("diff", "--name-only", baseline)
	if err != nil {
		return nil, err
	}

	changed := make(map[m.Path]struct{})
	addLines(changed, repoRoot, out)

	if includeStaged {
		out, err = g.run("diff", "--name-only", "--cached", baseline)
		if err != nil {
			return nil, err
		}

		addLines(changed, repoRoot, out)
	}

	return changed, nil
}

func (g *ExecGitAdapter) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: git %s: %s", ErrGitUnavailable, strings.Join(args, " "),
				strings.TrimSpace(string(exitErr.Stderr)))
		}

		return "", fmt.Errorf("%w: %v", ErrGitUnavailable, err)
	}

	return string(out), nil
}

func addLines(set map[m.Path]struct{}, repoRoot, out string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		set[m.Path(filepath.Join(repoRoot, filepath.FromSlash(line)))] = struct{}{}
	}
}
