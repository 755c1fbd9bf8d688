// Package domain holds the analysis pipeline: matching candidate literals,
// normalizing query text, validating it against a dialect grammar and
// scheduling per-file work.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/0x1david/sqint/internal/adapter"
	m "github.com/0x1david/sqint/internal/model"
)

// defaultChunkSize is how many files one worker claims at a time when the
// configuration does not set a chunk size.
const defaultChunkSize = 8

// Workflow defines the linting operations the CLI layer drives.
type Workflow interface {
	// SelectFiles resolves target roots into the ordered list of files to
	// analyze, applying globs, ignore rules and incremental-mode filtering.
	SelectFiles(roots ...m.Path) ([]m.Path, error)

	// Run analyzes the files and returns per-file results in the same order
	// the files were given, with issues ordered by span within each file.
	Run(ctx context.Context, files []m.Path) (*m.RunResult, error)
}

type workflow struct {
	fs     adapter.SourceFSAdapter
	git    adapter.GitAdapter
	python adapter.PythonFileAdapter

	matcher    *Matcher
	normalizer *Normalizer
	validator  *Validator

	cfg m.Config
	log *slog.Logger
}

// NewWorkflow wires the pipeline from configuration and adapters. It fails
// when the configuration names an unknown dialect or a malformed context
// pattern; both are run-level errors that must abort before any file is
// dispatched.
func NewWorkflow(cfg m.Config, fs adapter.SourceFSAdapter, git adapter.GitAdapter,
	python adapter.PythonFileAdapter, log *slog.Logger) (Workflow, error) {
	matcher, err := NewMatcher(cfg.VariableContexts, cfg.FunctionContexts)
	if err != nil {
		return nil, err
	}

	validator, err := NewValidator(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	return &workflow{
		fs:         fs,
		git:        git,
		python:     python,
		matcher:    matcher,
		normalizer: NewNormalizer(cfg.ParamMarkers, cfg.DialectMappings),
		validator:  validator,
		cfg:        cfg,
		log:        log,
	}, nil
}

// SelectFiles delegates glob and ignore handling to the filesystem adapter,
// then intersects with the changed-file set when incremental mode is on.
func (w *workflow) SelectFiles(roots ...m.Path) ([]m.Path, error) {
	if len(roots) == 0 {
		roots = []m.Path{"."}
	}

	rules := adapter.SelectionRules{
		Include:          append(append([]string{}, w.cfg.FilePatterns...), w.cfg.RawSQLFilePatterns...),
		Exclude:          w.cfg.ExcludePatterns,
		RespectGitignore: w.cfg.RespectGitignore,
		IncludeHidden:    w.cfg.IncludeHidden,
	}

	files, err := w.fs.Select(roots, rules)
	if err != nil {
		return nil, err
	}

	if !w.cfg.Incremental {
		return files, nil
	}

	changed, err := w.git.ChangedFiles(w.cfg.BaselineRev, w.cfg.IncludeStaged)
	if err != nil {
		return nil, err
	}

	kept := files[:0]

	for _, f := range files {
		abs, absErr := filepath.Abs(string(f))
		if absErr != nil {
			continue
		}

		if _, ok := changed[m.Path(abs)]; ok {
			kept = append(kept, f)
		}
	}

	w.log.Debug("incremental selection", "baseline", w.cfg.BaselineRev, "kept", len(kept), "changed", len(changed))

	return kept, nil
}

// Run dispatches the per-file pipeline. Sequential mode preserves input
// order trivially; parallel mode partitions files into fixed-size chunks and
// lets workers fill disjoint slots of a pre-sized result slice, so the final
// order is identical for any worker count.
func (w *workflow) Run(ctx context.Context, files []m.Path) (*m.RunResult, error) {
	start := time.Now()
	results := make([]m.FileResult, len(files))

	if !w.cfg.Parallel || len(files) <= 1 {
		for i, f := range files {
			results[i] = w.analyzeFile(ctx, f)
		}

		return &m.RunResult{Files: results, ElapsedMS: time.Since(start).Milliseconds()}, nil
	}

	workers := w.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	chunk := w.cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for lo := 0; lo < len(files); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(files))

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				results[i] = w.analyzeFile(gctx, files[i])
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &m.RunResult{Files: results, ElapsedMS: time.Since(start).Milliseconds()}, nil
}

// analyzeFile runs the full single-file pipeline. Every failure here is
// isolated to this file's result; nothing aborts the run.
func (w *workflow) analyzeFile(ctx context.Context, path m.Path) m.FileResult {
	content, err := w.fs.ReadFile(path)
	if err != nil {
		return failedResult(path, m.CategoryRead, firstLineSpan(), fmt.Sprintf("cannot read file: %v", err))
	}

	if w.isRawSQLFile(path) {
		return m.FileResult{File: path, Issues: w.checkLiteral(wholeFileSite(path, content))}
	}

	sites, err := w.python.ExtractSites(ctx, path, content)
	if err != nil {
		var parseErr *adapter.HostParseError
		if errors.As(err, &parseErr) {
			return failedResult(path, m.CategoryHostParse, parseErr.Span, parseErr.Msg)
		}

		return failedResult(path, m.CategoryHostParse, firstLineSpan(), err.Error())
	}

	var issues []m.Issue

	for _, site := range sites {
		decision := w.matcher.Match(site)
		if !decision.Matched {
			continue
		}

		w.log.Debug("query literal matched",
			"file", path, "line", site.Span.StartLine,
			"kind", decision.Kind, "pattern", decision.Pattern)

		issues = append(issues, w.checkLiteral(site)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Span.Before(issues[j].Span)
	})

	return m.FileResult{File: path, Issues: issues}
}

func (w *workflow) checkLiteral(site m.CandidateSite) []m.Issue {
	return w.validator.Validate(w.normalizer.Normalize(site))
}

// isRawSQLFile reports whether the path is validated whole-file instead of
// being walked as Python source.
func (w *workflow) isRawSQLFile(path m.Path) bool {
	rel := filepath.ToSlash(string(path))

	for _, p := range w.cfg.RawSQLFilePatterns {
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

// wholeFileSite wraps a raw SQL file's entire contents as one candidate.
func wholeFileSite(path m.Path, content []byte) m.CandidateSite {
	text := string(content)
	lines := strings.Count(text, "\n") + 1

	return m.CandidateSite{
		File: path,
		Text: text,
		Span: m.Span{
			StartLine: 1, StartCol: 1,
			EndLine: lines, EndCol: 1,
			StartByte: 0, EndByte: len(content),
		},
	}
}

func failedResult(path m.Path, category m.Category, span m.Span, msg string) m.FileResult {
	return m.FileResult{
		File:   path,
		Failed: true,
		Issues: []m.Issue{{
			File:     path,
			Span:     span,
			Severity: m.SeverityError,
			Category: category,
			Message:  msg,
		}},
	}
}

func firstLineSpan() m.Span {
	return m.Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
}
