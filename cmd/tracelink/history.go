package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	"tracelink/internal/storage"
)

var (
	historyLimit      int
	historyDays       int
	historyForce      bool
	historyJSONOutput bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and manage recorded runs",
	Long: `List recorded scan runs with their scores and the trend against
the previous run.

Examples:
  tracelink history              # Last 20 runs
  tracelink history --limit 5
  tracelink history show <run-id>
  tracelink history prune --days 30`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than the retention window",
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSONOutput, "json", false, "Output as JSON")

	historyShowCmd.Flags().BoolVar(&historyJSONOutput, "json", false, "Output as JSON")
	historyCmd.AddCommand(historyShowCmd)

	historyPruneCmd.Flags().IntVar(&historyDays, "days", 0, "Retention in days (default: history.retentionDays from config)")
	historyPruneCmd.Flags().BoolVar(&historyForce, "force", false, "Prune without confirmation")
	historyCmd.AddCommand(historyPruneCmd)

	rootCmd.AddCommand(historyCmd)
}

func openHistory(root string) (*storage.DB, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	return storage.Open(root, newCommandLogger(cfg))
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	db, err := openHistory(root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	if historyJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'tracelink scan' to record one.")
		return nil
	}

	// Runs come back newest first; the trend compares each run with
	// the one recorded before it.
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCREATED\tSCOPE\tSCORE\tGRADE\tTREND")
	for i := range runs {
		run := &runs[i]
		prev, err := db.PreviousRun(run.RunID)
		if err != nil {
			return err
		}
		trend := formatTrend(0, false)
		if prev != nil {
			trend = formatTrend(storage.Delta(prev, run).Score, true)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\n",
			run.RunID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Scope, run.Score, run.Grade, trend)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()
	runID := args[0]

	db, err := openHistory(root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}

	if historyJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Run:     %s\n", run.RunID)
	fmt.Printf("Created: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Scope:   %s\n", run.Scope)
	fmt.Printf("Roots:   %s\n", strings.Join(run.Roots, ", "))
	if run.NoData {
		fmt.Printf("Health:  no markers found\n")
	} else {
		fmt.Printf("Health:  %.1f / 100 (%s)\n", run.Score, run.Grade)
		fmt.Printf("  Orphan Ratio:       %.1f%%\n", run.OrphanRatio*100)
		fmt.Printf("  Chain Completeness: %.1f%%\n", run.ChainCompleteness*100)
		fmt.Printf("  Format Compliance:  %.1f%%\n", run.FormatCompliance*100)
	}
	fmt.Printf("Markers: %d total, %d orphaned, %d malformed\n",
		run.TotalOccurrences, run.Orphaned, run.Malformed)
	fmt.Printf("Chains:  %d roots, %d with specs, %d complete\n",
		run.RootCount, run.SpecRoots, run.CompleteRoots)

	prev, err := db.PreviousRun(runID)
	if err != nil {
		return err
	}
	if prev != nil {
		delta := storage.Delta(prev, run)
		fmt.Printf("\nTrend vs %s:\n", shortRunID(prev.RunID))
		fmt.Printf("  Score:              %s\n", formatTrend(delta.Score, true))
		fmt.Printf("  Orphan Ratio:       %s\n", formatTrend(delta.OrphanRatio, true))
		fmt.Printf("  Chain Completeness: %s\n", formatTrend(delta.ChainCompleteness, true))
	}

	fmt.Printf("\nFull record: tracelink report --run %s --format json\n", run.RunID)
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}

	days := historyDays
	if days <= 0 {
		days = cfg.History.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("no retention window: pass --days or set history.retentionDays")
	}

	if !historyForce {
		fmt.Printf("Delete all runs older than %d days? [y/N] ", days)
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(response) != "y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	db, err := storage.Open(root, newCommandLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := db.PruneOlderThan(days)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d run(s) older than %d days\n", removed, days)
	return nil
}

// shortRunID abbreviates a uuid for table display.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
