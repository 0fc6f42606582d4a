package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"grouper/adapters/excel"
	"grouper/domain/trial"
	"grouper/internal"
	"grouper/internal/cohort"
	"grouper/internal/config"
	"grouper/internal/errors"
	"grouper/internal/pipeline"
	"grouper/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "grouper",
		Short:         "Score reversal-learning and face-learning exports by cohort",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newTasksCmd(),
		newRosterCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError prefixes application errors with their code. Anything else,
// such as a cobra usage error, is printed with a usage hint.
func formatError(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("error [%s]: %v", errors.GetCode(err), err)
	}
	return fmt.Sprintf("error: %v (see grouper --help)", err)
}

type runOptions struct {
	dataDir    string
	outputDir  string
	rosterFile string
	sheet      string
	parallel   int
	report     bool
	logLevel   string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Score every export in a data directory",
		Long: `Load every .xlsx and .csv export in the data directory, score it for the
task and write one workbook with a sheet per result table.

The task defaults to the base name of the data directory, so a directory
called Prob_RL is scored as Prob_RL.

Flags override the environment (and .env):
- DATA_DIR, OUTPUT_DIR, ROSTER_FILE, INPUT_SHEET
- LOAD_PARALLELISM (default: 4)
- WRITE_REPORT (default: false)
- LOG_LEVEL (default: INFO)

Example: grouper run Prob_RL --data-dir ./exports/Prob_RL --output-dir ./out`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, opts)
			if err := config.Validate(cfg); err != nil {
				return err
			}

			taskName := ""
			if len(args) == 1 {
				taskName = args[0]
			}
			return runTask(cmd.Context(), cfg, taskName)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the exports (DATA_DIR)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory for the output workbook (OUTPUT_DIR)")
	cmd.Flags().StringVar(&opts.rosterFile, "roster", "", "YAML roster file (ROSTER_FILE); built-in roster when empty")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet to read from each workbook (INPUT_SHEET); first sheet when empty")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "Files loaded at once (LOAD_PARALLELISM)")
	cmd.Flags().BoolVar(&opts.report, "report", false, "Also write an HTML run report (WRITE_REPORT)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (LOG_LEVEL)")

	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, opts runOptions) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Paths.DataDir = opts.dataDir
	}
	if flags.Changed("output-dir") {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if flags.Changed("roster") {
		cfg.Paths.RosterFile = opts.rosterFile
	}
	if flags.Changed("sheet") {
		cfg.Load.Sheet = opts.sheet
	}
	if flags.Changed("parallel") {
		cfg.Load.Parallelism = opts.parallel
	}
	if flags.Changed("report") {
		cfg.Output.WriteReport = opts.report
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}

// resolveTask picks the explicit task name, or the data directory's base name.
func resolveTask(name, dataDir string) (trial.Task, error) {
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(filepath.Clean(dataDir))
	}
	task, err := trial.ParseTask(name)
	if err != nil {
		return "", errors.WithCode(errors.CodeUnknownTask, err)
	}
	return task, nil
}

func runTask(ctx context.Context, cfg *config.Config, taskName string) error {
	level, ok := internal.ParseLogLevel(cfg.Log.Level)
	if !ok {
		return errors.ConfigInvalid(fmt.Sprintf("unknown log level %q", cfg.Log.Level))
	}
	internal.DefaultLogger.SetLevel(level)
	logger := internal.DefaultLogger.Named("grouper")

	if cfg.Paths.DataDir == "" {
		return errors.ConfigInvalid("a data directory is required (--data-dir or DATA_DIR)")
	}
	task, err := resolveTask(taskName, cfg.Paths.DataDir)
	if err != nil {
		return err
	}

	roster, err := cohort.LoadRoster(cfg.Paths.RosterFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return errors.IOError(fmt.Sprintf("failed to create %s", cfg.Paths.OutputDir), err)
	}

	source := excel.NewDirectorySource(cfg.Paths.DataDir, cfg.Load.Parallelism).WithSheet(cfg.Load.Sheet)
	sink := excel.NewWorkbookSink(cfg.Paths.OutputDir, cfg.Output.DateLayout)

	p := pipeline.New(cohort.NewClassifier(roster), internal.DefaultLogger).
		WithSource(source).
		WithSink(sink)

	logger.Info("scoring %s from %s (%d subjects on roster)", task, cfg.Paths.DataDir, roster.Size())
	res, err := p.Execute(ctx, task)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows, %d partitions -> %s\n", task, res.InputRows, res.Partitions, res.OutputPath)

	if cfg.Output.WriteReport {
		path, err := report.Write(res, report.Meta{DataDir: cfg.Paths.DataDir, RosterFile: cfg.Paths.RosterFile})
		if err != nil {
			return err
		}
		fmt.Printf("report -> %s\n", path)
	}
	return nil
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the supported tasks and their required columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, task := range trial.AllTasks {
				spec := trial.SpecFor(task)
				fmt.Fprintf(out, "%s\n", task)
				fmt.Fprintf(out, "  columns: %s\n", strings.Join(spec.Columns, ", "))
				fmt.Fprintf(out, "  sorted by: %s\n", strings.Join(spec.SortKeys, ", "))
				if spec.MaxTrials > 0 {
					fmt.Fprintf(out, "  max trials: %d\n", spec.MaxTrials)
				}
				if spec.BlockFromFilename {
					fmt.Fprintf(out, "  block read from file name\n")
				}
			}
			return nil
		},
	}
}

func newRosterCmd() *cobra.Command {
	var rosterFile string

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Validate and print the cohort roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rosterFile
			if !cmd.Flags().Changed("roster") {
				path = os.Getenv("ROSTER_FILE")
			}
			roster, err := cohort.LoadRoster(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := path
			if source == "" {
				source = "built-in"
			}
			fmt.Fprintf(out, "roster: %s (%d subjects)\n", source, roster.Size())
			fmt.Fprintf(out, "treatment blocks > %d are post-treatment\n", roster.PostTreatmentAfterBlock)
			for _, g := range roster.Groups() {
				fmt.Fprintf(out, "  %-10s %v\n", g, roster.Cohorts[g])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterFile, "roster", "", "YAML roster file (ROSTER_FILE)")
	return cmd
}
