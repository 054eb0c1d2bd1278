package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"cwclog/internal/model"
)

// Default names inside a log directory.
const (
	DefaultLogFile  = "log.txt"
	DefaultImageDir = "images"
)

// ReadOptions controls how a log directory is opened.
type ReadOptions struct {
	FileName string // defaults to DefaultLogFile
	ImageDir string // defaults to DefaultImageDir
}

// Log is the text of one facilitator log plus what can be derived from its
// directory. Start time and records are computed on first use.
type Log struct {
	Dir      string
	Path     string
	Info     DirInfo
	ImageDir string // absolute image directory, empty when absent

	text string

	startOnce sync.Once
	start     string
	startErr  error

	recordsOnce sync.Once
	records     []model.RawRecord
	recordsErr  error
}

// ReadLog loads the log file of dir. This is the only file read of the
// segmentation pipeline.
func ReadLog(dir string, opts ReadOptions) (*Log, error) {
	if opts.FileName == "" {
		opts.FileName = DefaultLogFile
	}
	if opts.ImageDir == "" {
		opts.ImageDir = DefaultImageDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve log dir: %w", err)
	}

	path := filepath.Join(absDir, opts.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	l := NewLog(absDir, string(data))
	l.Path = path

	imgDir := filepath.Join(absDir, opts.ImageDir)
	if info, err := os.Stat(imgDir); err == nil && info.IsDir() {
		l.ImageDir = imgDir
	} else {
		log.Warn().Str("dir", imgDir).Msg("no image directory found; this transcript will have no images")
	}

	return l, nil
}

// NewLog wraps already loaded text. dir supplies the container metadata and
// is what image paths are resolved against.
func NewLog(dir string, text string) *Log {
	return &Log{
		Dir:  dir,
		Info: ParseDirName(filepath.Base(dir)),
		text: text,
	}
}

// Text returns the raw log text.
func (l *Log) Text() string { return l.text }

// StartTime returns the session start as "TIME DATE".
func (l *Log) StartTime() (string, error) {
	l.startOnce.Do(func() {
		log.Debug().Str("path", l.Path).Msg("loading start time")
		l.start, l.startErr = StartTime(l.text)
	})
	return l.start, l.startErr
}

// Records returns the segmented message records.
func (l *Log) Records() ([]model.RawRecord, error) {
	l.recordsOnce.Do(func() {
		log.Debug().Str("path", l.Path).Msg("loading log entries")
		l.records, l.recordsErr = Segment(l.text)
		if l.recordsErr == nil {
			log.Debug().Int("count", len(l.records)).Msg("found log entries")
		}
	})
	return l.records, l.recordsErr
}
