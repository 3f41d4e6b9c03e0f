package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/practice-sim/practice-sim/sim"
	"github.com/practice-sim/practice-sim/sim/store"
	"github.com/practice-sim/practice-sim/sim/trace"
)

var (
	// CLI flags for `run`
	scenarioPath string // Scenario YAML file
	seed         int64  // Master seed; overrides the scenario's when set
	ticks        int64  // Ticks to simulate; overrides the scenario's when set
	flushEvery   int64  // Flush the event sink every N ticks (0 = only at the end)
	dbPath       string // SQLite database for events (empty = memory only)
	selection    string // Selection policy override
	traceLevel   string // Which events reach the database
	logLevel     string // Log verbosity level

	// CLI flags for `query`
	queryRun     string   // Run ID (empty = latest)
	queryKinds   []string // Event kinds to include
	querySubject string   // Entity name
	queryFrom    int64    // First tick, inclusive
	queryTo      int64    // Last tick, inclusive
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "practice-sim",
	Short: "Discrete-time simulator of agents choosing everyday practices",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runOptions carries the resolved `run` configuration.
type runOptions struct {
	Scenario   *Scenario
	Name       string
	FlushEvery int64
	DBPath     string
	TraceLevel trace.TraceLevel
}

// runResult is what a finished run reports.
type runResult struct {
	RunID   string
	Summary *trace.RunSummary
	Ticks   int64
	Elapsed time.Duration
}

// runCmd executes a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		if scenarioPath == "" {
			logrus.Fatalf("--scenario is required")
		}
		if !sim.IsValidSelectionPolicy(selection) {
			logrus.Fatalf("Unknown selection %q. Valid: %v", selection, sim.ValidSelectionPolicyNames())
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q. Valid: none, practices, all", traceLevel)
		}
		if flushEvery < 0 {
			logrus.Fatalf("--flush-every must be >= 0, got %d", flushEvery)
		}

		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("seed") {
			logrus.Infof("CLI --seed %d overrides scenario seed %d", seed, sc.Seed)
			sc.Seed = seed
		}
		if cmd.Flags().Changed("ticks") {
			sc.Ticks = ticks
		}
		if sc.Ticks <= 0 {
			logrus.Fatalf("Nothing to run: set ticks in the scenario or pass --ticks")
		}
		if selection != "" {
			sc.Selection = selection
		}

		res, err := runScenario(cmd.Context(), runOptions{
			Scenario:   sc,
			Name:       scenarioPath,
			FlushEvery: flushEvery,
			DBPath:     dbPath,
			TraceLevel: trace.TraceLevel(traceLevel),
		})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printSummary(os.Stdout, res)
		logrus.Info("Simulation complete.")
	},
}

// runScenario builds the world, runs it and summarises the events.
// Events always go to memory for the summary; with a database path they are
// also persisted, filtered by the trace level.
func runScenario(ctx context.Context, opts runOptions) (*runResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	mem := trace.NewMemorySink()
	var sink trace.EventSink = mem
	var run *store.RunSink
	if opts.DBPath != "" {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if run, err = db.NewRun(ctx, opts.Scenario.Seed, opts.Name); err != nil {
			return nil, err
		}
		persisted, err := trace.WithLevel(run, opts.TraceLevel)
		if err != nil {
			return nil, err
		}
		sink = trace.Tee(mem, persisted)
	}

	built, err := opts.Scenario.Build(sink)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Starting simulation: seed=%d ticks=%d selection=%q agents=%d",
		opts.Scenario.Seed, opts.Scenario.Ticks, opts.Scenario.Selection, len(built.Agents))

	start := time.Now()
	if err := built.World.Run(opts.Scenario.Ticks, opts.FlushEvery); err != nil {
		return nil, err
	}
	res := &runResult{
		Summary: trace.Summarize(mem.Events(), built.AgentNames()),
		Ticks:   built.World.Clock(),
		Elapsed: time.Since(start),
	}
	if run != nil {
		if err := run.Finish(res.Ticks); err != nil {
			return nil, err
		}
		res.RunID = run.ID()
		logrus.Infof("Stored %d events as run %s", run.Written(), run.ID())
	}
	return res, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed (overrides the scenario's seed when set)")
	runCmd.Flags().Int64Var(&ticks, "ticks", 0, "Ticks to simulate (overrides the scenario's ticks when set)")
	runCmd.Flags().Int64Var(&flushEvery, "flush-every", 100, "Flush events every N ticks (0 = only at the end)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to store events in")
	runCmd.Flags().StringVar(&selection, "selection", "", "Selection policy override (softmax, greedy)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "all", "Events stored in --db (none, practices, all)")

	queryCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to read")
	queryCmd.Flags().StringVar(&queryRun, "run", "", "Run ID (default: latest run)")
	queryCmd.Flags().StringSliceVar(&queryKinds, "kind", nil, "Event kinds to include (comma-separated)")
	queryCmd.Flags().StringVar(&querySubject, "subject", "", "Only events of this entity")
	queryCmd.Flags().Int64Var(&queryFrom, "from", 0, "First tick, inclusive")
	queryCmd.Flags().Int64Var(&queryTo, "to", 0, "Last tick, inclusive")

	runsCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to read")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(runsCmd)
}
