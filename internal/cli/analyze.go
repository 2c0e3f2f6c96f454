package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jvmcov/jvmcov/internal/covmetrics"
	"github.com/jvmcov/jvmcov/pkg/classfile"
	"github.com/jvmcov/jvmcov/pkg/coverage"
	"github.com/jvmcov/jvmcov/pkg/execdata"
)

var (
	analyzeReport        string
	analyzeJobs          int
	analyzeFailOnWarning bool

	analyzeCmd = &cobra.Command{
		Use:   "analyze <class-path>...",
		Short: "Compute line and branch coverage of class files against a report",
		Long: `Analyze matches the probe arrays of an execution data report against
the structure of the given class files (or directories of class files)
and prints per-class line and branch coverage.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, conf, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runAnalyze(cmd, args, logger, conf)
		},
	}
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeReport, "report", "r", "", "path to the execution data report")
	analyzeCmd.Flags().IntVarP(&analyzeJobs, "jobs", "j", 0, "number of parallel analysis workers (0 uses the config or GOMAXPROCS)")
	analyzeCmd.Flags().BoolVar(&analyzeFailOnWarning, "fail-on-warning", false, "treat skipped class files as an error")
	_ = analyzeCmd.MarkFlagFilename("report", "exec")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string, logger *zap.Logger, conf *Config) error {
	metrics := covmetrics.New(prometheus.DefaultRegisterer)

	store := execdata.NewStore()
	sessions := execdata.NewSessionStore()

	report, err := execdata.NewReportReader(analyzeReport, logger)
	if err != nil {
		return err
	}
	if err := report.Read(metrics.ExecutionVisitor(store), metrics.SessionVisitor(sessions)); err != nil {
		return err
	}
	metrics.ReportRead()

	paths, err := collectClassFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no class files found under %s", strings.Join(args, ", "))
	}

	jobs := analyzeJobs
	if jobs <= 0 {
		jobs = conf.Analyze.Jobs
	}

	analyzer := coverage.NewAnalyzer(store, classfile.NewExtractor(), logger)
	batch, err := analyzer.AnalyzeAll(cmd.Context(), paths, jobs)
	if err != nil {
		return err
	}
	metrics.ClassesAnalyzed(len(batch.Result.Units()))
	metrics.ClassesSkipped(len(batch.Warnings))

	if err := printCoverage(cmd.OutOrStdout(), batch.Result); err != nil {
		return err
	}

	if analyzeFailOnWarning || conf.Analyze.FailOnWarning {
		if n := len(batch.Warnings); n > 0 {
			return fmt.Errorf("skipped %d class files", n)
		}
	}
	return nil
}

// collectClassFiles expands directories into the .class files below them.
// Explicitly named files are taken as-is.
func collectClassFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".class") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func printCoverage(w io.Writer, result *coverage.Result) error {
	for _, unit := range result.Units() {
		lines := unit.LineCounter()
		branches := unit.BranchCounter()
		_, err := fmt.Fprintf(w, "%-60s lines %d/%d, branches %d/%d\n",
			unit.Name, lines.Covered, lines.Total(), branches.Covered, branches.Total())
		if err != nil {
			return err
		}
	}

	lines := result.LineCounter()
	branches := result.BranchCounter()
	_, err := fmt.Fprintf(w, "total: %d classes, lines %d/%d, branches %d/%d\n",
		len(result.Units()), lines.Covered, lines.Total(), branches.Covered, branches.Total())
	return err
}
