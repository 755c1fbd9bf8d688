package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x1david/sqint/internal/adapter"
	m "github.com/0x1david/sqint/internal/model"
)

// fakeFS serves files from memory in a fixed order.
type fakeFS struct {
	order []m.Path
	files map[m.Path][]byte
}

func (f *fakeFS) Select(_ []m.Path, _ adapter.SelectionRules) ([]m.Path, error) {
	return append([]m.Path{}, f.order...), nil
}

func (f *fakeFS) ReadFile(path m.Path) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}

	return content, nil
}

func (f *fakeFS) WriteFile(m.Path, []byte, os.FileMode) error { return nil }

func (f *fakeFS) FileInfo(m.Path) (os.FileInfo, error) { return nil, os.ErrNotExist }

// fakePython yields pre-baked sites per path instead of parsing.
type fakePython struct {
	sites  map[m.Path][]m.CandidateSite
	broken map[m.Path]*adapter.HostParseError
}

func (f *fakePython) ExtractSites(_ context.Context, path m.Path, _ []byte) ([]m.CandidateSite, error) {
	if err, ok := f.broken[path]; ok {
		return nil, err
	}

	return f.sites[path], nil
}

type fakeGit struct {
	changed map[m.Path]struct{}
	err     error
}

func (f *fakeGit) ChangedFiles(string, bool) (map[m.Path]struct{}, error) {
	return f.changed, f.err
}

func testConfig() m.Config {
	return m.Config{
		VariableContexts:   []string{"*sql*", "*query*"},
		FilePatterns:       []string{"*.py"},
		RawSQLFilePatterns: []string{"*.sql"},
		Dialect:            m.DialectGeneric,
		ParamMarkers:       []string{"?"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sqlSite(path m.Path, line int, text string) m.CandidateSite {
	return m.CandidateSite{
		File: path,
		Text: text,
		Span: m.Span{StartLine: line, StartCol: 1, StartByte: line * 100},
		Context: m.SiteContext{
			Assignment: "the_sql",
		},
	}
}

func buildWorkflow(t *testing.T, cfg m.Config, fs *fakeFS, git adapter.GitAdapter, py adapter.PythonFileAdapter) Workflow {
	t.Helper()

	w, err := NewWorkflow(cfg, fs, git, py, quietLogger())
	require.NoError(t, err)

	return w
}

func TestWorkflow_Run_OrderIsIndependentOfWorkerCount(t *testing.T) {
	const fileCount = 12

	fs := &fakeFS{files: map[m.Path][]byte{}}
	py := &fakePython{sites: map[m.Path][]m.CandidateSite{}}

	var files []m.Path

	for i := 0; i < fileCount; i++ {
		path := m.Path(fmt.Sprintf("pkg/file_%02d.py", i))
		files = append(files, path)
		fs.files[path] = []byte("")

		// Every other file carries one broken and one clean statement.
		if i%2 == 0 {
			py.sites[path] = []m.CandidateSite{
				sqlSite(path, 3, "SELECT FROM nowhere;"),
				sqlSite(path, 9, "SELECT id FROM t;"),
			}
		} else {
			py.sites[path] = []m.CandidateSite{
				sqlSite(path, 5, "SELECT id FROM t WHERE a = ?;"),
			}
		}
	}

	baselineCfg := testConfig()
	baselineCfg.Parallel = false

	baseline, err := buildWorkflow(t, baselineCfg, fs, &fakeGit{}, py).Run(context.Background(), files)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			cfg := testConfig()
			cfg.Parallel = true
			cfg.Workers = workers
			cfg.ChunkSize = 2

			result, err := buildWorkflow(t, cfg, fs, &fakeGit{}, py).Run(context.Background(), files)
			require.NoError(t, err)

			require.Len(t, result.Files, fileCount)

			for i := range result.Files {
				assert.Equal(t, baseline.Files[i].File, result.Files[i].File)
				assert.Equal(t, baseline.Files[i].Issues, result.Files[i].Issues)
			}
		})
	}
}

func TestWorkflow_Run_IssuesOrderedBySpanWithinFile(t *testing.T) {
	path := m.Path("app.py")

	fs := &fakeFS{files: map[m.Path][]byte{path: []byte("")}}
	py := &fakePython{sites: map[m.Path][]m.CandidateSite{
		path: {
			sqlSite(path, 30, "SELECT FROM late;"),
			sqlSite(path, 2, "SELECT FROM early;"),
		},
	}}

	result, err := buildWorkflow(t, testConfig(), fs, &fakeGit{}, py).Run(context.Background(), []m.Path{path})
	require.NoError(t, err)

	issues := result.Files[0].Issues
	require.Len(t, issues, 2)
	assert.Equal(t, 2, issues[0].Span.StartLine)
	assert.Equal(t, 30, issues[1].Span.StartLine)
}

func TestWorkflow_Run_PerFileFailuresAreIsolated(t *testing.T) {
	good := m.Path("good.py")
	bad := m.Path("bad.py")
	missing := m.Path("missing.py")

	fs := &fakeFS{files: map[m.Path][]byte{good: []byte(""), bad: []byte("")}}
	py := &fakePython{
		sites: map[m.Path][]m.CandidateSite{
			good: {sqlSite(good, 1, "SELECT id FROM t;")},
		},
		broken: map[m.Path]*adapter.HostParseError{
			bad: {File: bad, Span: m.Span{StartLine: 7, StartCol: 3}, Msg: "invalid Python syntax"},
		},
	}

	result, err := buildWorkflow(t, testConfig(), fs, &fakeGit{}, py).
		Run(context.Background(), []m.Path{bad, missing, good})
	require.NoError(t, err)

	require.Len(t, result.Files, 3)

	parseFailed := result.Files[0]
	assert.True(t, parseFailed.Failed)
	require.Len(t, parseFailed.Issues, 1)
	assert.Equal(t, m.CategoryHostParse, parseFailed.Issues[0].Category)
	assert.Equal(t, 7, parseFailed.Issues[0].Span.StartLine)

	readFailed := result.Files[1]
	assert.True(t, readFailed.Failed)
	require.Len(t, readFailed.Issues, 1)
	assert.Equal(t, m.CategoryRead, readFailed.Issues[0].Category)

	clean := result.Files[2]
	assert.False(t, clean.Failed)
	assert.Empty(t, clean.Issues)

	assert.Equal(t, []m.Path{bad, missing}, result.FailedFiles())
}

func TestWorkflow_Run_RawSQLFileIsValidatedWholeFile(t *testing.T) {
	raw := m.Path("migrations/001.sql")

	fs := &fakeFS{files: map[m.Path][]byte{
		raw: []byte("CREATE TABLE t (id integer);\nSELECT FROM t;\n"),
	}}

	result, err := buildWorkflow(t, testConfig(), fs, &fakeGit{}, &fakePython{}).
		Run(context.Background(), []m.Path{raw})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	require.Len(t, result.Files[0].Issues, 1)
	assert.Equal(t, m.CategorySyntax, result.Files[0].Issues[0].Category)
	assert.Equal(t, 2, result.Files[0].Issues[0].Span.StartLine)
}

func TestWorkflow_Run_UnmatchedSitesAreDropped(t *testing.T) {
	path := m.Path("app.py")

	fs := &fakeFS{files: map[m.Path][]byte{path: []byte("")}}
	py := &fakePython{sites: map[m.Path][]m.CandidateSite{
		path: {{
			File:    path,
			Text:    "definitely not sql and not matched",
			Span:    m.Span{StartLine: 1, StartCol: 1},
			Context: m.SiteContext{Assignment: "greeting"},
		}},
	}}

	result, err := buildWorkflow(t, testConfig(), fs, &fakeGit{}, py).Run(context.Background(), []m.Path{path})
	require.NoError(t, err)

	assert.Empty(t, result.Files[0].Issues)
}

func TestWorkflow_SelectFiles_Incremental(t *testing.T) {
	a, b, c := m.Path("a.py"), m.Path("b.py"), m.Path("c.py")

	abs := func(p m.Path) m.Path {
		full, err := filepath.Abs(string(p))
		require.NoError(t, err)

		return m.Path(full)
	}

	fs := &fakeFS{order: []m.Path{a, b, c}}

	t.Run("intersects with the changed set preserving order", func(t *testing.T) {
		cfg := testConfig()
		cfg.Incremental = true
		cfg.BaselineRev = "main"

		git := &fakeGit{changed: map[m.Path]struct{}{abs(c): {}, abs(a): {}}}

		files, err := buildWorkflow(t, cfg, fs, git, &fakePython{}).SelectFiles(".")
		require.NoError(t, err)

		assert.Equal(t, []m.Path{a, c}, files)
	})

	t.Run("git failure is fatal, never a silent full scan", func(t *testing.T) {
		cfg := testConfig()
		cfg.Incremental = true

		git := &fakeGit{err: fmt.Errorf("%w: not a repository", adapter.ErrGitUnavailable)}

		_, err := buildWorkflow(t, cfg, fs, git, &fakePython{}).SelectFiles(".")

		assert.ErrorIs(t, err, adapter.ErrGitUnavailable)
	})

	t.Run("non-incremental mode never consults git", func(t *testing.T) {
		git := &fakeGit{err: fmt.Errorf("must not be called")}

		files, err := buildWorkflow(t, testConfig(), fs, git, &fakePython{}).SelectFiles(".")
		require.NoError(t, err)

		assert.Equal(t, []m.Path{a, b, c}, files)
	})
}

func TestNewWorkflow_ConfigErrorsAbortBeforeDispatch(t *testing.T) {
	t.Run("unknown dialect", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dialect = m.Dialect("cobol")

		_, err := NewWorkflow(cfg, &fakeFS{}, &fakeGit{}, &fakePython{}, quietLogger())

		assert.Error(t, err)
	})

	t.Run("malformed context pattern", func(t *testing.T) {
		cfg := testConfig()
		cfg.VariableContexts = []string{"[oops"}

		_, err := NewWorkflow(cfg, &fakeFS{}, &fakeGit{}, &fakePython{}, quietLogger())

		assert.Error(t, err)
	})
}
