// Package main provides the cwclog CLI for browsing and exporting CwC dialogue logs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cwclog/internal/config"
	"cwclog/internal/entry"
	"cwclog/internal/export"
	"cwclog/internal/format"
	"cwclog/internal/logging"
	"cwclog/internal/model"
	"cwclog/internal/parser"
	"cwclog/internal/store"
	"cwclog/internal/view"
)

var version = "dev"

var (
	logsDir  string
	logLevel string
	cfg      = config.Default()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cwclog",
		Short:         "Browse, render, and export CwC facilitator dialogue logs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if logsDir != "" {
				loaded.LogsDir = logsDir
			}
			if logLevel != "" {
				loaded.Logging.Level = logLevel
			}
			cfg = loaded
			logging.Init(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logsDir, "logs-dir", "",
		"root directory holding log directories (env: CWCLOG_LOGS_DIR, default: ~/cwc-logs)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"diagnostic log level: debug, info, warn, or error (env: CWCLOG_LOG_LEVEL)")

	root.AddCommand(newListCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newIndexCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cwclog: %v\n", err)
		os.Exit(1)
	}
}

func newListCmd() *cobra.Command {
	var (
		iface      string
		afterStr   string
		beforeStr  string
		limit      int
		formatFlag string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List log directories ordered by start time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			after, err := parseTimeFlag("--after", afterStr)
			if err != nil {
				return err
			}
			before, err := parseTimeFlag("--before", beforeStr)
			if err != nil {
				return err
			}

			result, err := store.ListLogs(store.ListOptions{
				Root:      cfg.LogsDir,
				LogFile:   cfg.LogFile,
				ImageDir:  cfg.ImageDir,
				Agents:    cfg.Agents,
				Interface: iface,
				After:     after,
				Before:    before,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&iface, "interface", "", "only list logs for the given interface: CLIC, SBGN, or UNKNOWN")
	flags.StringVar(&afterStr, "after", "", "include logs starting on/after the given time (RFC3339 or \"3:04 PM 1/2/06\")")
	flags.StringVar(&beforeStr, "before", "", "include logs starting on/before the given time (RFC3339 or \"3:04 PM 1/2/06\")")
	flags.IntVar(&limit, "limit", 0, "limit number of logs returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")

	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		kindArg      string
		wrap         int
		maxEntries   int
		formatFlag   string
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "view <log-dir-or-name>",
		Short: "Render a dialogue transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			dir, err := resolveLogDir(args[0], cfg.LogsDir, cfg.LogFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				Dir:          dir,
				LogFile:      cfg.LogFile,
				ImageDir:     cfg.ImageDir,
				Agents:       cfg.Agents,
				Format:       formatFlag,
				Wrap:         wrap,
				MaxEntries:   maxEntries,
				KindArg:      kindArg,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&kindArg, "kind", "K", "", "comma-separated entry kinds to include (e.g. sys_utterance,user_utterance; default: all)")
	flags.IntVar(&wrap, "wrap", 0, "wrap message body at the given column width")
	flags.IntVar(&maxEntries, "max", 0, "show only the most recent N entries (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, chat, raw, json, or html")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

type infoPayload struct {
	Name          string         `json:"name"`
	Dir           string         `json:"dir"`
	LogPath       string         `json:"log_path"`
	Info          parser.DirInfo `json:"info"`
	StartTime     string         `json:"start_time"`
	ImageDir      string         `json:"image_dir,omitempty"`
	RecordCount   int            `json:"record_count"`
	EntryCount    int            `json:"entry_count"`
	Unparsable    int            `json:"unparsable"`
	Unclassified  int            `json:"unclassified"`
	ResetCount    int            `json:"reset_count"`
	FirstQuestion string         `json:"first_question"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag  string
		showEntries bool
	)

	cmd := &cobra.Command{
		Use:   "info <log-dir-or-name>",
		Short: "Show log metadata and entry statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveLogDir(args[0], cfg.LogsDir, cfg.LogFile)
			if err != nil {
				return err
			}

			l, err := parser.ReadLog(dir, parser.ReadOptions{FileName: cfg.LogFile, ImageDir: cfg.ImageDir})
			if err != nil {
				return err
			}
			start, err := l.StartTime()
			if err != nil {
				return fmt.Errorf("read start time %s: %w", l.Path, err)
			}
			records, err := l.Records()
			if err != nil {
				return fmt.Errorf("segment log %s: %w", l.Path, err)
			}
			entries, stats := entry.Resolve(records, entry.Options{LogDir: l.Dir, ImageDir: cfg.ImageDir, Agents: cfg.Agents})

			payload := infoPayload{
				Name:         filepath.Base(l.Dir),
				Dir:          l.Dir,
				LogPath:      l.Path,
				Info:         l.Info,
				StartTime:    start,
				ImageDir:     l.ImageDir,
				RecordCount:  stats.Total,
				EntryCount:   stats.Kept,
				Unparsable:   stats.Unparsable,
				Unclassified: stats.Unclassified,
			}
			for _, e := range entries {
				switch e.Kind() {
				case model.KindReset:
					payload.ResetCount++
				case model.KindUserUtterance:
					if payload.FirstQuestion == "" {
						payload.FirstQuestion, _ = e.Text()
					}
				}
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				renderInfoText(out, payload, clipSummary(collapseWhitespace(payload.FirstQuestion), 160))
				if showEntries {
					fmt.Fprintln(out) //nolint:errcheck
					return format.WriteEntries(out, entries, true)
				}
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.BoolVar(&showEntries, "entries", false, "append a table of every entry (text format only)")

	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		outFile  string
		fileType string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export <log-dir-or-name>",
		Short: "Export a transcript as HTML or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveLogDir(args[0], cfg.LogsDir, cfg.LogFile)
			if err != nil {
				return err
			}

			res, err := export.Export(cmd.Context(), cfg, dir, export.Options{
				OutFile:  outFile,
				FileType: export.FileType(fileType),
				UseCache: !noCache,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.OutFile) //nolint:errcheck
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outFile, "out", "o", "", "output file (default: transcript.<type> in the log directory; a .pdf suffix implies --type pdf)")
	flags.StringVar(&fileType, "type", "html", "output type: html or pdf")
	flags.BoolVar(&noCache, "no-cache", false, "re-render even when transcript.html already exists")

	return cmd
}

func newIndexCmd() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Export every log under root and write transcripts.json and index.html",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cfg.LogsDir
			if len(args) == 1 {
				root = args[0]
			}
			if jobs <= 0 {
				jobs = cfg.Jobs
			}

			res, err := export.Index(cmd.Context(), cfg, root, jobs)
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range res.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}
			out := cmd.OutOrStdout()
			for _, path := range res.Transcripts {
				fmt.Fprintln(out, path) //nolint:errcheck
			}
			log.Debug().Int("count", len(res.Transcripts)).Msg("index complete")
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of logs exported concurrently (env: CWCLOG_JOBS)")
	return cmd
}

// resolveLogDir accepts a log directory path or the base name of a log
// directory somewhere under root.
func resolveLogDir(arg, root, logFile string) (string, error) {
	if arg == "" {
		return "", errors.New("log identifier is empty")
	}

	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg, nil
	}

	candidate := filepath.Join(root, arg)
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate, nil
	}

	return store.FindLogDir(root, arg, logFile)
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := store.ParseStartTime(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %q", name, value)
	}
	return &t, nil
}

func renderInfoText(out io.Writer, payload infoPayload, firstQuestion string) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Name", payload.Name)
	writeKV(out, labelWidth, "Container", payload.Info.ContainerName)
	writeKV(out, labelWidth, "Image", payload.Info.ImageID)
	writeKV(out, labelWidth, "Interface", string(payload.Info.Interface))
	writeKV(out, labelWidth, "Started At", payload.StartTime)
	writeKV(out, labelWidth, "Records", fmt.Sprintf("%d", payload.RecordCount))
	writeKV(out, labelWidth, "Entries", fmt.Sprintf("%d", payload.EntryCount))
	writeKV(out, labelWidth, "Skipped", fmt.Sprintf("%d unparsable, %d unclassified", payload.Unparsable, payload.Unclassified))
	writeKV(out, labelWidth, "Resets", fmt.Sprintf("%d", payload.ResetCount))
	writeKV(out, labelWidth, "Log Path", payload.LogPath)
	writeKV(out, labelWidth, "First Question", firstQuestion)
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
}

func clipSummary(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
