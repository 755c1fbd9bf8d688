package model

// Mapping is one dialect-vocabulary substitution applied before parsing,
// matched as a literal substring, never a regex.
type Mapping struct {
	From string
	To   string
}

// Config is the validated, read-only configuration view the pipeline runs
// against. The config package owns loading, merging and validation; the
// core only consumes this record.
type Config struct {
	// Detection
	VariableContexts []string
	FunctionContexts []string
	MinSQLLength     int

	// File selection
	FilePatterns       []string
	RawSQLFilePatterns []string
	ExcludePatterns    []string
	RespectGitignore   bool
	IncludeHidden      bool

	// Incremental mode
	Incremental   bool
	BaselineRev   string
	IncludeStaged bool

	// Scheduling
	Parallel  bool
	Workers   int // 0 means detected CPU parallelism
	ChunkSize int // 0 means the scheduler's default

	// SQL validation
	Dialect         Dialect
	ParamMarkers    []string
	DialectMappings []Mapping
}
