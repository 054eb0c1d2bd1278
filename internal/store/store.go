// Package store enumerates CwC log directories under a root directory.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cwclog/internal/classify"
	"cwclog/internal/entry"
	"cwclog/internal/parser"
)

var errStop = errors.New("stop iteration")

// StartTimeLayout is the layout of the "TIME DATE" start string, e.g. "2:15 PM 6/1/18".
const StartTimeLayout = "3:04 PM 1/2/06"

// LogSummary describes one log directory.
type LogSummary struct {
	Name        string         `json:"name"`
	Dir         string         `json:"dir"`
	Info        parser.DirInfo `json:"info"`
	StartTime   string         `json:"start_time"`
	StartedAt   time.Time      `json:"started_at"`
	RecordCount int            `json:"record_count"`
	EntryCount  int            `json:"entry_count"`
	HasImages   bool           `json:"has_images"`
}

// ListOptions controls how log directories are enumerated.
type ListOptions struct {
	Root      string
	LogFile   string
	ImageDir  string
	Agents    classify.Agents
	Interface string // CLIC, SBGN or UNKNOWN; empty means any
	After     *time.Time
	Before    *time.Time
	Limit     int
}

// ListResult contains log summaries and non-fatal warnings.
type ListResult struct {
	Summaries []LogSummary
	Warnings  []error
}

// ListLogs enumerates log directories under Root, oldest session first.
func ListLogs(opts ListOptions) (ListResult, error) {
	root := opts.Root
	if root == "" {
		return ListResult{}, errors.New("root directory is required")
	}
	if opts.LogFile == "" {
		opts.LogFile = parser.DefaultLogFile
	}

	var result ListResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}

		if d.IsDir() || d.Name() != opts.LogFile {
			return nil
		}
		dir := filepath.Dir(path)

		summary, err := Summarize(dir, opts)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("summarize %s: %w", dir, err))
			return nil
		}

		if opts.Interface != "" && !strings.EqualFold(string(summary.Info.Interface), opts.Interface) {
			return nil
		}
		if opts.After != nil && summary.StartedAt.Before(*opts.After) {
			return nil
		}
		if opts.Before != nil && summary.StartedAt.After(*opts.Before) {
			return nil
		}

		result.Summaries = append(result.Summaries, summary)
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.SliceStable(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].StartedAt.Before(result.Summaries[j].StartedAt)
	})

	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}

	return result, nil
}

// Summarize reads one log directory and counts its records and entries.
func Summarize(dir string, opts ListOptions) (LogSummary, error) {
	l, err := parser.ReadLog(dir, parser.ReadOptions{FileName: opts.LogFile, ImageDir: opts.ImageDir})
	if err != nil {
		return LogSummary{}, err
	}

	start, err := l.StartTime()
	if err != nil {
		return LogSummary{}, err
	}
	records, err := l.Records()
	if err != nil {
		return LogSummary{}, err
	}
	entries, _ := entry.Resolve(records, entry.Options{LogDir: l.Dir, ImageDir: opts.ImageDir, Agents: opts.Agents})

	summary := LogSummary{
		Name:        filepath.Base(l.Dir),
		Dir:         l.Dir,
		Info:        l.Info,
		StartTime:   start,
		RecordCount: len(records),
		EntryCount:  len(entries),
		HasImages:   l.ImageDir != "",
	}
	// Unparseable start strings sort first rather than failing the listing.
	if ts, err := ParseStartTime(start); err == nil {
		summary.StartedAt = ts
	}
	return summary, nil
}

// ParseStartTime parses a "TIME DATE" start string such as "2:15 PM 6/1/18".
func ParseStartTime(s string) (time.Time, error) {
	return time.Parse(StartTimeLayout, strings.Join(strings.Fields(s), " "))
}

// FindLogDir searches root for a log directory whose base name is name.
func FindLogDir(root, name, logFile string) (string, error) {
	if root == "" {
		return "", errors.New("root directory is required")
	}
	if name == "" {
		return "", errors.New("log name is required")
	}
	if logFile == "" {
		logFile = parser.DefaultLogFile
	}

	var matched string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || d.Name() != logFile {
			return nil
		}
		if dir := filepath.Dir(path); filepath.Base(dir) == name {
			matched = dir
			return errStop
		}
		return nil
	})

	if matched != "" {
		return matched, nil
	}
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}
	return "", fmt.Errorf("log %s not found under %s", name, root)
}
