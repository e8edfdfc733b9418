package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harrison/filescan/internal/config"
	"github.com/harrison/filescan/internal/history"
	"github.com/harrison/filescan/internal/models"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'filescan history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scan runs",
		Long: `List scan runs recorded in the history database, newest first.

The database is taken from --db, then history_db in the config file,
then $FILESCAN_HOME/history.db.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("db", "", "History database path")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().String("root", "", "Only show scans of this root directory")
	cmd.Flags().Duration("prune", 0, "Delete runs older than this age before listing (e.g. 720h)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbFlag, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("limit")
	root, _ := cmd.Flags().GetString("root")
	prune, _ := cmd.Flags().GetDuration("prune")

	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", limit)
	}
	if prune < 0 {
		return fmt.Errorf("--prune must be >= 0, got %v", prune)
	}

	configured := cfg.HistoryDB
	if dbFlag != "" {
		configured = dbFlag
	}
	dbPath, err := config.ResolveHistoryDB(configured)
	if err != nil {
		return fmt.Errorf("failed to get history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No scan history found.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if prune > 0 {
		removed, err := store.PruneBefore(ctx, time.Now().Add(-prune))
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
		fmt.Fprintf(output, "Pruned %d run(s) older than %s\n", removed, prune)
	}

	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	runs, err := store.ListRuns(ctx, root, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(output, "No scan history found.\n")
		return nil
	}

	printRuns(cmd, runs)
	return nil
}

func printRuns(cmd *cobra.Command, runs []*models.RunRecord) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "STARTED\tRUN\tROOT\tFILTER\tFILES\tDIRS\tSKIPPED\tDURATION\tRATE\n")

	for _, r := range runs {
		var rate float64
		if secs := r.Duration().Seconds(); secs > 0 {
			rate = float64(r.Files) / secs
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s/s\n",
			humanize.Time(r.StartedAt),
			shortID(r.RunID),
			r.Root,
			describeFilter(r),
			humanize.Comma(r.Files),
			humanize.Comma(r.Directories),
			humanize.Comma(r.ListErrors+r.EncodeErrors),
			r.Duration().Round(time.Millisecond),
			humanize.CommafWithDigits(rate, 0),
		)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describeFilter(r *models.RunRecord) string {
	var parts []string
	if r.Prefix != "" {
		parts = append(parts, fmt.Sprintf("%s:%s", r.PrefixMode, r.Prefix))
	}
	if len(r.FileTypes) > 0 {
		parts = append(parts, "."+strings.Join(r.FileTypes, ",."))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
