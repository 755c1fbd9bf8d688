package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/0x1david/sqint/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func relPaths(t *testing.T, root string, paths []m.Path) []string {
	t.Helper()

	out := make([]string, 0, len(paths))

	for _, p := range paths {
		rel, err := filepath.Rel(root, string(p))
		require.NoError(t, err)

		out = append(out, filepath.ToSlash(rel))
	}

	return out
}

func TestSelect_IncludeAndExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":            "",
		"lib/db.py":         "",
		"lib/db_test.py":    "",
		"migrations/m1.sql": "",
		"README.md":         "",
	})

	a := NewLocalSourceFSAdapter()

	files, err := a.Select([]m.Path{m.Path(root)}, SelectionRules{
		Include: []string{"*.py", "*.sql"},
		Exclude: []string{"*_test.py"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"app.py", "lib/db.py", "migrations/m1.sql"},
		relPaths(t, root, files))
}

func TestSelect_PathAnchoredPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.py":    "",
		"vendor/lib.py": "",
	})

	a := NewLocalSourceFSAdapter()

	files, err := a.Select([]m.Path{m.Path(root)}, SelectionRules{
		Include: []string{"*.py"},
		Exclude: []string{"vendor/**"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/app.py"}, relPaths(t, root, files))
}

func TestSelect_HiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":          "",
		".hidden.py":      "",
		".venv/stale.py":  "",
		"pkg/.secret.py":  "",
		"pkg/visible.py":  "",
	})

	a := NewLocalSourceFSAdapter()
	rules := SelectionRules{Include: []string{"*.py"}}

	files, err := a.Select([]m.Path{m.Path(root)}, rules)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.py", "pkg/visible.py"}, relPaths(t, root, files))

	rules.IncludeHidden = true

	files, err = a.Select([]m.Path{m.Path(root)}, rules)
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestSelect_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":      "build/\nscratch.py\n",
		"app.py":          "",
		"scratch.py":      "",
		"build/gen.py":    "",
		"src/handlers.py": "",
	})

	a := NewLocalSourceFSAdapter()

	files, err := a.Select([]m.Path{m.Path(root)}, SelectionRules{
		Include:          []string{"*.py"},
		RespectGitignore: true,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"app.py", "src/handlers.py"}, relPaths(t, root, files))
}

func TestSelect_ExplicitFileBypassesPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"notes.txt": ""})

	a := NewLocalSourceFSAdapter()
	target := filepath.Join(root, "notes.txt")

	files, err := a.Select([]m.Path{m.Path(target)}, SelectionRules{Include: []string{"*.py"}})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, m.Path(target), files[0])
}

func TestSelect_DeduplicatesAcrossRoots(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"app.py": ""})

	a := NewLocalSourceFSAdapter()

	files, err := a.Select([]m.Path{m.Path(root), m.Path(root)}, SelectionRules{Include: []string{"*.py"}})
	require.NoError(t, err)

	assert.Len(t, files, 1)
}

func TestSelect_MissingRootFails(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	_, err := a.Select([]m.Path{"/definitely/not/here"}, SelectionRules{Include: []string{"*.py"}})

	assert.Error(t, err)
}
