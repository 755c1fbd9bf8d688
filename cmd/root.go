// Package cmd provides the root command and CLI setup for sqint.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/0x1david/sqint/internal/adapter"
	"github.com/0x1david/sqint/internal/config"
	"github.com/0x1david/sqint/internal/controller"
	"github.com/0x1david/sqint/internal/domain"
	m "github.com/0x1david/sqint/internal/model"
)

var (
	configFlag      string
	dialectFlag     string
	incrementalFlag bool
	baselineFlag    string
	stagedFlag      bool
	noParallelFlag  bool
	workersFlag     int
	errorsOnlyFlag  bool
	maxIssuesFlag   int
	statsFlag       bool
	noColorFlag     bool
	verboseFlag     bool
)

// exitCode carries the issue-derived exit status from the check run to
// Execute, keeping the fatal path (exit 2) separate from "issues found".
var exitCode int

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqint [paths...]",
		Short: "Find and validate SQL embedded in Python source",
		Long: `Sqint statically analyzes Python files, locates string literals that look
like SQL (by the names they are assigned to or passed through), and checks
them against a configurable SQL dialect grammar. Syntax defects are reported
at their original source positions before they can reach a database.

With no paths, the current directory is scanned. Configuration is read from
sqint.toml or the [tool.sqint] table of pyproject.toml, discovered by walking
up from the working directory.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "path to a configuration file")
	cmd.Flags().StringVarP(&dialectFlag, "dialect", "d", "", "SQL dialect to validate against")
	cmd.Flags().BoolVarP(&incrementalFlag, "incremental", "i", false, "only analyze files changed since the baseline revision")
	cmd.Flags().StringVar(&baselineFlag, "baseline", "", "baseline revision for incremental mode")
	cmd.Flags().BoolVar(&stagedFlag, "staged", false, "include staged-but-uncommitted changes in incremental mode")
	cmd.Flags().BoolVar(&noParallelFlag, "no-parallel", false, "process files sequentially")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "worker count for parallel processing (0 = all CPUs)")
	cmd.Flags().BoolVar(&errorsOnlyFlag, "errors-only", false, "report only error-severity issues")
	cmd.Flags().IntVar(&maxIssuesFlag, "max-issues", 0, "stop printing after this many issues (0 = unlimited)")
	cmd.Flags().BoolVar(&statsFlag, "stats", false, "print a per-file summary")
	cmd.Flags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := newLogger(verboseFlag)

	cfg, cfgPath, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	if cfgPath != "" {
		log.Debug("configuration loaded", "path", cfgPath)
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	workflow, err := domain.NewWorkflow(
		cfg,
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewExecGitAdapter(wd),
		adapter.NewTreeSitterPythonAdapter(cfg.MinSQLLength),
		log,
	)
	if err != nil {
		return err
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	files, err := workflow.SelectFiles(paths...)
	if err != nil {
		return err
	}

	log.Debug("files selected", "count", len(files), "dialect", cfg.Dialect)

	result, err := workflow.Run(cmd.Context(), files)
	if err != nil {
		return err
	}

	reporter := controller.NewReporter(cmd, noColorFlag)

	err = reporter.Report(result, controller.ReportOptions{
		ErrorsOnly: errorsOnlyFlag,
		MaxIssues:  maxIssuesFlag,
		Stats:      statsFlag,
	})
	if err != nil {
		return err
	}

	exitCode = controller.ExitCode(result)

	return nil
}

// applyFlags overlays explicitly-set CLI flags on the file configuration.
func applyFlags(cmd *cobra.Command, cfg *m.Config) error {
	if cmd.Flags().Changed("dialect") {
		dialect, err := m.ParseDialect(dialectFlag)
		if err != nil {
			return err
		}

		cfg.Dialect = dialect
	}

	if cmd.Flags().Changed("incremental") {
		cfg.Incremental = incrementalFlag
	}

	if cmd.Flags().Changed("baseline") {
		cfg.BaselineRev = baselineFlag
		cfg.Incremental = true
	}

	if cmd.Flags().Changed("staged") {
		cfg.IncludeStaged = stagedFlag
	}

	if noParallelFlag {
		cfg.Parallel = false
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = workersFlag
	}

	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command. Fatal run-level errors exit 2; a completed
// run exits with the issue-derived code (0 clean, 1 issues found).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(controller.ExitFatal)
	}

	os.Exit(exitCode)
}
