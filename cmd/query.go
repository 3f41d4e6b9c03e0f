package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/practice-sim/practice-sim/sim/store"
	"github.com/practice-sim/practice-sim/sim/trace"
)

// queryCmd prints stored events as JSON lines
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print stored events of a run",
	Run: func(cmd *cobra.Command, args []string) {
		if dbPath == "" {
			logrus.Fatalf("--db is required")
		}
		f := trace.Filter{Subject: querySubject}
		for _, k := range queryKinds {
			if !trace.IsValidKind(k) {
				logrus.Fatalf("Unknown event kind %q", k)
			}
			f.Kinds = append(f.Kinds, trace.EventKind(k))
		}
		if cmd.Flags().Changed("from") {
			f.FromTick = &queryFrom
		}
		if cmd.Flags().Changed("to") {
			f.ToTick = &queryTo
		}

		db, err := store.Open(dbPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer db.Close()
		if err := queryEvents(cmd.Context(), db, queryRun, f, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// queryEvents writes the matching events of runID, or of the latest run when
// runID is empty, one JSON object per line.
func queryEvents(ctx context.Context, db *store.Store, runID string, f trace.Filter, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if runID == "" {
		runs, err := db.Runs(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("database holds no runs")
		}
		runID = runs[len(runs)-1].ID
		logrus.Infof("Querying latest run %s", runID)
	}
	events, err := db.Query(ctx, runID, f)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	logrus.Infof("%s events matched", humanize.Comma(int64(len(events))))
	return nil
}

// runsCmd lists stored runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs stored in a database",
	Run: func(cmd *cobra.Command, args []string) {
		if dbPath == "" {
			logrus.Fatalf("--db is required")
		}
		db, err := store.Open(dbPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer db.Close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		runs, err := db.Runs(ctx)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printRuns(os.Stdout, runs)
	},
}

func printRuns(out io.Writer, runs []store.Run) {
	for _, r := range runs {
		fmt.Fprintf(out, "%s  seed=%-6d ticks=%-8s events=%-10s %s  (%s)\n",
			r.ID, r.Seed, humanize.Comma(r.Ticks), humanize.Comma(r.Events), r.Scenario, humanize.Time(r.StartedAt))
	}
}
