package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/filescan/internal/config"
	"github.com/harrison/filescan/internal/fileutil"
	"github.com/harrison/filescan/internal/history"
	"github.com/harrison/filescan/internal/logger"
	"github.com/harrison/filescan/internal/models"
	"github.com/harrison/filescan/internal/scanner"
	"github.com/harrison/filescan/internal/sink"
	"github.com/harrison/filescan/internal/walker"
	"github.com/spf13/cobra"
)

// enumerator replaces the default directory lister when set.
var enumerator walker.Enumerator

// loadConfig reads the config file named by --config, or .filescan.yaml.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// scanOverrides collects the flags that were set on the command line.
func scanOverrides(cmd *cobra.Command) config.Overrides {
	flags := cmd.Flags()
	var o config.Overrides

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	o.Root = stringFlag("path")
	o.Prefix = stringFlag("prefix")
	o.PrefixMode = stringFlag("prefix-mode")
	o.Buffer = stringFlag("buffer")
	o.Output = stringFlag("output")
	o.FileTypes = stringFlag("filetypes")
	o.LogLevel = stringFlag("log-level")
	o.LogFile = stringFlag("log-file")
	o.HistoryDB = stringFlag("history-db")

	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		o.Workers = &v
	}
	if flags.Changed("bom") {
		v, _ := flags.GetBool("bom")
		o.BOM = &v
	}
	if flags.Changed("progress-interval") {
		v, _ := flags.GetDuration("progress-interval")
		o.ProgressInterval = &v
	}

	return o
}

// runScan implements the root command: configure, scan, publish, record.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.MergeWithFlags(scanOverrides(cmd)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := buildLogger(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	mode, _ := fileutil.ParsePrefixMode(cfg.PrefixMode)
	extensions := cfg.Extensions()
	filter := fileutil.NewFilter(cfg.Prefix, mode, extensions)

	outPath, err := filepath.Abs(cfg.Output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	out, err := sink.Create(outPath, sink.Options{BOM: cfg.BOM})
	if err != nil {
		return err
	}

	eng, err := scanner.New(scanner.Options{
		Root:       cfg.Root,
		Filter:     filter,
		FlushBytes: cfg.FlushThreshold(),
		Workers:    cfg.Workers,
		Logger:     log,
		OutputName: outPath,
		Exclude:    out.ScratchPaths(),
		Enumerator: enumerator,
	}, out)
	if err != nil {
		return errors.Join(err, out.Abort())
	}

	stopProgress := startProgress(cmd.ErrOrStderr(), eng, cfg.ProgressInterval)
	result, runErr := eng.Run()
	stopProgress()

	// A failed run leaves any previous output in place
	if runErr != nil {
		return errors.Join(fmt.Errorf("scan failed: %w", runErr), out.Abort())
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cfg.HistoryDB != "" {
		rec := models.NewRunRecord(result, cfg.Prefix, extensions)
		rec.PrefixMode = string(mode)
		if err := recordRun(cmd, cfg.HistoryDB, rec); err != nil {
			log.LogWarn(fmt.Sprintf("run not recorded in history: %v", err))
		} else {
			log.LogDebug(fmt.Sprintf("run %s recorded in %s", rec.RunID, cfg.HistoryDB))
		}
	}

	return nil
}

// buildLogger returns the console logger, teed into a file logger when
// log_file is set. The returned func closes the file logger.
func buildLogger(w io.Writer, cfg *config.Config) (logger.Logger, func(), error) {
	console := logger.NewConsoleLogger(w, cfg.LogLevel)
	if cfg.LogFile == "" {
		return console, func() {}, nil
	}

	fileLog, err := logger.NewFileLoggerWithLevel(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger.NewTee(console, fileLog), func() { fileLog.Close() }, nil
}

// startProgress redraws a progress line on w every interval while the scan
// runs. It only draws on a terminal. The returned func stops it and clears
// the line.
func startProgress(w io.Writer, eng *scanner.Engine, interval time.Duration) func() {
	f, ok := w.(*os.File)
	if interval <= 0 || !ok || !logger.IsTerminalFile(f) {
		return func() {}
	}

	line := logger.NewProgressLine(w, !color.NoColor)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				line.Clear()
				return
			case <-ticker.C:
				p := eng.Progress()
				line.Update(logger.ProgressStats{
					Files:       p.Files,
					Directories: p.Directories,
					Pending:     p.Pending,
					Elapsed:     p.Elapsed,
				})
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func recordRun(cmd *cobra.Command, dbPath string, rec *models.RunRecord) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(cmd.Context(), rec)
}
