// Package adapter contains filesystem, git, host-language and UI adapters
// for the sqint CLI.
package adapter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	m "github.com/0x1david/sqint/internal/model"
)

// SelectionRules is the file-selection slice of the configuration: which
// files under the target roots are analysis candidates.
type SelectionRules struct {
	Include          []string // glob patterns a file must match one of
	Exclude          []string // glob patterns that remove a file
	RespectGitignore bool
	IncludeHidden    bool
}

// SourceFSAdapter abstracts the filesystem operations the workflow relies on,
// so selection and reading can be tested without touching a real project.
type SourceFSAdapter interface {
	// Select resolves roots into a deduplicated, order-stable list of files
	// matching the rules. Files are returned in walk order per root, roots
	// in argument order.
	Select(roots []m.Path, rules SelectionRules) ([]m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path so callers can check existence.
	FileInfo(path m.Path) (os.FileInfo, error)
}

// LocalSourceFSAdapter backs SourceFSAdapter with the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter ready to be
// wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Select walks every root and keeps files matching the rules. A root that is
// itself a file bypasses the include patterns: naming a file explicitly is
// the strongest possible inclusion.
func (a *LocalSourceFSAdapter) Select(roots []m.Path, rules SelectionRules) ([]m.Path, error) {
	seen := make(map[string]struct{})

	var selected []m.Path

	keep := func(path string) {
		if _, exists := seen[path]; exists {
			return
		}

		seen[path] = struct{}{}
		selected = append(selected, m.Path(path))
	}

	for _, root := range roots {
		rootStr := filepath.Clean(string(root))

		info, err := os.Stat(rootStr)
		if err != nil {
			return nil, fmt.Errorf("target path: %w", err)
		}

		if !info.IsDir() {
			keep(rootStr)

			continue
		}

		matcher := rules.gitignoreFor(rootStr)

		err = filepath.WalkDir(rootStr, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, relErr := filepath.Rel(rootStr, path)
			if relErr != nil {
				return relErr
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path == rootStr {
					return nil
				}

				if !rules.IncludeHidden && isHidden(d.Name()) {
					return filepath.SkipDir
				}

				if matcher != nil && matcher.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}

				return nil
			}

			if !rules.IncludeHidden && isHidden(d.Name()) {
				return nil
			}

			if matcher != nil && matcher.MatchesPath(rel) {
				return nil
			}

			if !matchesAny(rules.Include, rel) || matchesAny(rules.Exclude, rel) {
				return nil
			}

			keep(path)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return selected, nil
}

// gitignoreFor compiles the root's .gitignore when the rules ask for it. A
// missing or unreadable ignore file simply means nothing is ignored.
func (r SelectionRules) gitignoreFor(root string) *ignore.GitIgnore {
	if !r.RespectGitignore {
		return nil
	}

	matcher, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	return matcher
}

// matchesAny reports whether the slash-separated relative path matches any
// pattern. A pattern without a separator is matched against the base name,
// so "*.py" selects Python files at any depth.
func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		subject := rel
		if !strings.ContainsRune(p, '/') {
			subject = filepath.Base(rel)
		}

		if ok, err := doublestar.Match(p, subject); err == nil && ok {
			return true
		}
	}

	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}
