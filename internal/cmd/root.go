package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for filescan.
// The root command itself performs a scan; history is a subcommand.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filescan --path=<root> [flags]",
		Short: "Parallel file enumerator",
		Long: `filescan lists every file beneath the directories of a root folder,
using a pool of parallel workers, and writes their absolute paths to a
single-column CSV file ("File Path" header).

Only directories directly under --path are scanned; files at the top
level are ignored. --prefix restricts which of those directories are
entered, --filetypes restricts which files are recorded.

Configuration is loaded from .filescan.yaml if present.
CLI flags override configuration file settings.

Examples:
  filescan --path=/data
  filescan --path=/data --prefix=Proj --filetypes=doc,docx,pdf
  filescan --path=/data --buffer=2MB --output=/tmp/files.csv --workers=16
  filescan --path=/data --prefix=archive --prefix-mode=substring
  filescan history --limit=5`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runScan,
		// main prints the returned error once
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .filescan.yaml)")

	cmd.Flags().String("path", "", "Root directory to scan (required)")
	cmd.Flags().String("prefix", "", "Only scan top-level folders whose name starts with this prefix (case-insensitive)")
	cmd.Flags().String("prefix-mode", "", "Prefix matching: anchored (top-level name prefix) or substring (any folder name, any depth)")
	cmd.Flags().String("buffer", "", "Per-worker output buffer in KB, or with a unit such as 2MB (default: 5000 records)")
	cmd.Flags().String("output", "", "Output CSV file (default: file_list.csv)")
	cmd.Flags().String("filetypes", "", "Comma-separated extensions to record, without dots (e.g. doc,docx,pdf)")
	cmd.Flags().Int("workers", 0, "Number of parallel workers (0 = number of CPUs)")
	cmd.Flags().Bool("bom", false, "Write a UTF-8 byte-order mark before the header")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-file", "", "Also write log output to this file")
	cmd.Flags().Duration("progress-interval", 0, "Progress line refresh interval on a terminal (0 = off)")
	cmd.Flags().String("history-db", "", "Record the run in this SQLite history database")

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
