// Package view renders a CwC log transcript to a terminal or writer.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"cwclog/internal/classify"
	"cwclog/internal/entry"
	"cwclog/internal/format"
	"cwclog/internal/model"
	"cwclog/internal/parser"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Options defines the configurable parameters for rendering a view.
type Options struct {
	Dir          string
	LogFile      string
	ImageDir     string
	Agents       classify.Agents
	Format       string
	Wrap         int
	MaxEntries   int
	KindArg      string
	ForceColor   bool
	ForceNoColor bool
	Out          io.Writer
	OutFile      *os.File
}

// Run renders the log in opts.Dir according to the provided options.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	kinds, err := parseKindArg(opts.KindArg)
	if err != nil {
		return err
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}

	l, err := parser.ReadLog(opts.Dir, parser.ReadOptions{FileName: opts.LogFile, ImageDir: opts.ImageDir})
	if err != nil {
		return err
	}
	records, err := l.Records()
	if err != nil {
		return fmt.Errorf("segment log %s: %w", l.Path, err)
	}

	if formatMode == "raw" {
		for _, rec := range lastN(records, opts.MaxEntries) {
			if _, err := fmt.Fprintf(opts.Out, "<%s T=%q %s>\n%s\n", rec.Direction, rec.Timestamp, rec.Partner, rec.Text); err != nil {
				return err
			}
		}
		return nil
	}

	resolved, _ := entry.Resolve(records, entry.Options{LogDir: l.Dir, ImageDir: opts.ImageDir, Agents: opts.Agents})
	entries := lastN(filterKinds(resolved, kinds), opts.MaxEntries)

	switch formatMode {
	case "text":
		useColor := resolveColorChoice(opts)
		for idx, e := range entries {
			if idx > 0 {
				fmt.Fprintln(opts.Out) //nolint:errcheck
			}
			printEntry(opts.Out, e, idx+1, opts.Wrap, useColor)
		}
		return nil

	case "json":
		out := make([]format.EntryJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, format.ToJSON(e))
		}
		enc := json.NewEncoder(opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case "html":
		start, err := l.StartTime()
		if err != nil {
			return fmt.Errorf("read start time %s: %w", l.Path, err)
		}
		return format.WriteHTML(opts.Out, format.Page{Info: l.Info, StartTime: start, Entries: entries})

	case "chat":
		colorEnabled := resolveColorChoice(opts)
		width := determineWidth(opts.OutFile, opts.Wrap)
		if len(entries) == 0 {
			return nil
		}

		lines := renderChatTranscript(entries, width, colorEnabled)
		if opts.OutFile != nil && isatty.IsTerminal(opts.OutFile.Fd()) {
			return pipeThroughPager(lines, colorEnabled)
		}
		return writeLines(opts.Out, lines)

	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// parseKindArg turns "sys_utterance,user_utterance" into a kind set. An
// empty argument or "all" means no filtering.
func parseKindArg(arg string) (map[model.Kind]struct{}, error) {
	values := parseCSV(arg)
	if len(values) == 0 || (len(values) == 1 && values[0] == "all") {
		return nil, nil
	}

	set := make(map[model.Kind]struct{}, len(values))
	for _, token := range values {
		kind, err := model.ParseKind(token)
		if err != nil {
			return nil, fmt.Errorf("unknown kind %q", token)
		}
		set[kind] = struct{}{}
	}
	return set, nil
}

func parseCSV(arg string) []string {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	output := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(strings.ToLower(part))
		if token != "" {
			output = append(output, token)
		}
	}
	return output
}

func filterKinds(entries []*entry.Entry, kinds map[model.Kind]struct{}) []*entry.Entry {
	if kinds == nil {
		return entries
	}
	out := make([]*entry.Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := kinds[e.Kind()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// lastN keeps the most recent n items; n <= 0 keeps everything.
func lastN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(out io.Writer, e *entry.Entry, index int, wrap int, useColor bool) {
	label := format.Label(e)
	ts := e.Timestamp()
	if ts == "" {
		ts = "-"
	}
	headerPlain := fmt.Sprintf("[#%03d] %s | %s | %s %s", index, label, ts, e.Direction().Preposition(), e.Partner())

	indexText := fmt.Sprintf("#%03d", index)
	labelText := label
	tsText := ts
	separator := "|"

	if useColor {
		indexText = colorize(true, ansiBoldWhite, indexText)
		labelText = colorize(true, kindColor(e.Kind()), labelText)
		tsText = colorize(true, ansiTimestamp, tsText)
		separator = colorize(true, ansiSeparator, "|")
	}

	header := fmt.Sprintf("[%s] %s %s %s %s %s %s", indexText, labelText, separator, tsText, separator, e.Direction().Preposition(), e.Partner())
	fmt.Fprintln(out, header)                                //nolint:errcheck
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain))) //nolint:errcheck

	linePrefix := "| "
	emptyPrefix := "|"
	if useColor {
		separatorColor := colorize(true, ansiSeparator, "|")
		linePrefix = separatorColor + " "
		emptyPrefix = separatorColor
	}

	lines := format.RenderEntryLines(e, wrap)
	if len(lines) == 0 {
		fmt.Fprintf(out, "%s%s\n", linePrefix, "(no content)") //nolint:errcheck
		return
	}
	for _, line := range lines {
		if line == "" {
			fmt.Fprintln(out, emptyPrefix) //nolint:errcheck
			continue
		}
		fmt.Fprintf(out, "%s%s\n", linePrefix, line) //nolint:errcheck
	}
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiBob       = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
	ansiDisplay   = "\x1b[38;5;207m"
)

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

func kindColor(kind model.Kind) string {
	switch kind {
	case model.KindSysUtterance:
		return ansiBob
	case model.KindUserUtterance:
		return ansiUser
	case model.KindAddProvenance, model.KindDisplayImage, model.KindDisplaySBGN:
		return ansiDisplay
	case model.KindReset, model.KindNone:
		return ansiSeparator
	}
	return ansiSeparator
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
