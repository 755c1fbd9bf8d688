// Package config loads, merges and validates sqint configuration from
// sqint.toml or the [tool.sqint] table of pyproject.toml.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	m "github.com/0x1david/sqint/internal/model"
)

const (
	// FileName is the dedicated configuration file sqint looks for first.
	FileName = "sqint.toml"
	// PyprojectName is the shared Python project file sqint reads when no
	// dedicated file exists.
	PyprojectName = "pyproject.toml"
)

// DefaultTOML is the commented starter configuration written by `sqint init`.
//
//go:embed default.toml
var DefaultTOML []byte

// fileConfig is the TOML shape of the configuration. Pointer booleans
// distinguish "not set" from an explicit false so a file can disable a
// default-on behavior.
type fileConfig struct {
	VariableContexts []string `toml:"variable_contexts"`
	FunctionContexts []string `toml:"function_contexts"`
	MinSQLLength     int      `toml:"min_sql_length"`

	FilePatterns       []string `toml:"file_patterns"`
	RawSQLFilePatterns []string `toml:"raw_sql_file_patterns"`
	ExcludePatterns    []string `toml:"exclude_patterns"`
	RespectGitignore   *bool    `toml:"respect_gitignore"`
	IncludeHiddenFiles bool     `toml:"include_hidden_files"`

	ParallelProcessing *bool `toml:"parallel_processing"`
	MaxThreads         int   `toml:"max_threads"`
	ChunkSize          int   `toml:"chunk_size"`

	IncrementalMode bool   `toml:"incremental_mode"`
	BaselineBranch  string `toml:"baseline_branch"`
	IncludeStaged   *bool  `toml:"include_staged"`

	Dialect         string            `toml:"dialect"`
	ParamMarkers    []string          `toml:"param_markers"`
	DialectMappings map[string]string `toml:"dialect_mappings"`
}

type pyprojectFile struct {
	Tool struct {
		Sqint *fileConfig `toml:"sqint"`
	} `toml:"tool"`
}

// Default returns the built-in configuration used when no file sets a value.
func Default() m.Config {
	return m.Config{
		VariableContexts: []string{"*query*", "*sql*", "*statement*", "*stmt*"},
		MinSQLLength:     8,

		FilePatterns:       []string{"*.py", "*.pyi"},
		RawSQLFilePatterns: []string{"*.sql"},
		RespectGitignore:   true,

		Parallel:      true,
		BaselineRev:   "main",
		IncludeStaged: true,

		Dialect:      m.DialectGeneric,
		ParamMarkers: []string{"?"},
		DialectMappings: []m.Mapping{
			{From: "ISNULL", To: "IS NULL"},
			{From: "NOTNULL", To: "NOT NULL"},
		},
	}
}

// Load resolves the effective configuration. With an explicit path only that
// file is read; otherwise discovery walks up from the working directory
// looking for sqint.toml, then a pyproject.toml carrying [tool.sqint]. File
// values overlay the defaults; absent keys keep them. The returned path is
// the file actually used, empty when running on pure defaults.
func Load(explicitPath string) (m.Config, m.Path, error) {
	if explicitPath != "" {
		fc, err := readFile(explicitPath)
		if err != nil {
			return m.Config{}, "", err
		}

		cfg, err := overlay(Default(), fc)

		return cfg, m.Path(explicitPath), err
	}

	path, fc, err := discover()
	if err != nil {
		return m.Config{}, "", err
	}

	if fc == nil {
		return Default(), "", nil
	}

	cfg, err := overlay(Default(), *fc)

	return cfg, path, err
}

// discover walks from the working directory to the filesystem root and stops
// at the first directory containing usable configuration.
func discover() (m.Path, *fileConfig, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}

	for {
		dedicated := filepath.Join(dir, FileName)
		if _, statErr := os.Stat(dedicated); statErr == nil {
			fc, readErr := readFile(dedicated)
			if readErr != nil {
				return "", nil, readErr
			}

			return m.Path(dedicated), &fc, nil
		}

		pyproject := filepath.Join(dir, PyprojectName)
		if _, statErr := os.Stat(pyproject); statErr == nil {
			fc, ok, readErr := readPyproject(pyproject)
			if readErr != nil {
				return "", nil, readErr
			}

			if ok {
				return m.Path(pyproject), &fc, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}

		dir = parent
	}
}

func readFile(path string) (fileConfig, error) {
	if filepath.Base(path) == PyprojectName {
		fc, ok, err := readPyproject(path)
		if err != nil {
			return fileConfig{}, err
		}

		if !ok {
			return fileConfig{}, fmt.Errorf("%s: no [tool.sqint] section", path)
		}

		return fc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(content, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return fc, nil
}

func readPyproject(path string) (fileConfig, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("read config: %w", err)
	}

	var pp pyprojectFile
	if err := toml.Unmarshal(content, &pp); err != nil {
		return fileConfig{}, false, fmt.Errorf("parse %s: %w", path, err)
	}

	if pp.Tool.Sqint == nil {
		return fileConfig{}, false, nil
	}

	return *pp.Tool.Sqint, true, nil
}

// overlay applies file values over the base configuration. Non-empty lists
// replace the default list wholesale rather than appending, so a project can
// narrow detection, not only widen it.
func overlay(base m.Config, fc fileConfig) (m.Config, error) {
	cfg := base

	if len(fc.VariableContexts) > 0 {
		cfg.VariableContexts = fc.VariableContexts
	}

	if len(fc.FunctionContexts) > 0 {
		cfg.FunctionContexts = fc.FunctionContexts
	}

	if fc.MinSQLLength > 0 {
		cfg.MinSQLLength = fc.MinSQLLength
	}

	if len(fc.FilePatterns) > 0 {
		cfg.FilePatterns = fc.FilePatterns
	}

	if len(fc.RawSQLFilePatterns) > 0 {
		cfg.RawSQLFilePatterns = fc.RawSQLFilePatterns
	}

	if len(fc.ExcludePatterns) > 0 {
		cfg.ExcludePatterns = fc.ExcludePatterns
	}

	if fc.RespectGitignore != nil {
		cfg.RespectGitignore = *fc.RespectGitignore
	}

	cfg.IncludeHidden = cfg.IncludeHidden || fc.IncludeHiddenFiles

	if fc.ParallelProcessing != nil {
		cfg.Parallel = *fc.ParallelProcessing
	}

	if fc.MaxThreads > 0 {
		cfg.Workers = fc.MaxThreads
	}

	if fc.ChunkSize > 0 {
		cfg.ChunkSize = fc.ChunkSize
	}

	cfg.Incremental = cfg.Incremental || fc.IncrementalMode

	if fc.BaselineBranch != "" {
		cfg.BaselineRev = fc.BaselineBranch
	}

	if fc.IncludeStaged != nil {
		cfg.IncludeStaged = *fc.IncludeStaged
	}

	if fc.Dialect != "" {
		dialect, err := m.ParseDialect(fc.Dialect)
		if err != nil {
			return m.Config{}, err
		}

		cfg.Dialect = dialect
	}

	if len(fc.ParamMarkers) > 0 {
		cfg.ParamMarkers = fc.ParamMarkers
	}

	if len(fc.DialectMappings) > 0 {
		cfg.DialectMappings = orderedMappings(fc.DialectMappings)
	}

	return cfg, nil
}

// orderedMappings converts the TOML table into a deterministic list. TOML
// tables are unordered, so keys are applied in lexicographic order.
func orderedMappings(table map[string]string) []m.Mapping {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	mappings := make([]m.Mapping, 0, len(keys))
	for _, k := range keys {
		mappings = append(mappings, m.Mapping{From: k, To: table[k]})
	}

	return mappings
}
