// Package export writes HTML and PDF transcripts of CwC log directories.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"cwclog/internal/config"
	"cwclog/internal/entry"
	"cwclog/internal/format"
	"cwclog/internal/parser"
)

// CacheFile is the HTML transcript kept inside each log directory.
const CacheFile = "transcript.html"

// FileType is an export output format.
type FileType string

const (
	FileTypeHTML FileType = "html"
	FileTypePDF  FileType = "pdf"
)

// ErrInvalidFileType is returned for output formats other than html and pdf.
var ErrInvalidFileType = errors.New("invalid file type")

// Options controls a single export.
type Options struct {
	// OutFile defaults to transcript.<type> in the log directory. A .pdf
	// suffix forces pdf output.
	OutFile  string
	FileType FileType
	// UseCache reuses an existing transcript.html instead of re-rendering.
	UseCache bool
}

// Result describes a finished export.
type Result struct {
	Dir       string
	OutFile   string
	FileType  FileType
	StartTime string
	Cached    bool
}

// Export renders the log in dir to an HTML or PDF transcript.
func Export(ctx context.Context, cfg *config.Config, dir string, opts Options) (Result, error) {
	fileType, err := resolveFileType(opts)
	if err != nil {
		return Result{}, err
	}

	l, err := parser.ReadLog(dir, parser.ReadOptions{FileName: cfg.LogFile, ImageDir: cfg.ImageDir})
	if err != nil {
		return Result{}, err
	}
	start, err := l.StartTime()
	if err != nil {
		return Result{}, fmt.Errorf("read start time %s: %w", l.Path, err)
	}

	htmlFile := filepath.Join(l.Dir, CacheFile)
	outFile := opts.OutFile
	if outFile == "" {
		outFile = filepath.Join(l.Dir, "transcript."+string(fileType))
	}

	result := Result{Dir: l.Dir, OutFile: outFile, FileType: fileType, StartTime: start}

	html, cached, err := loadCached(htmlFile, opts.UseCache)
	if err != nil {
		return Result{}, err
	}
	if !cached {
		html, err = render(l, cfg)
		if err != nil {
			return Result{}, err
		}
		if err := os.WriteFile(htmlFile, html, 0o644); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", htmlFile, err)
		}
	}
	result.Cached = cached

	switch fileType {
	case FileTypeHTML:
		if outFile != htmlFile {
			if err := os.WriteFile(outFile, html, 0o644); err != nil {
				return Result{}, fmt.Errorf("write %s: %w", outFile, err)
			}
		}
	case FileTypePDF:
		if err := renderPDF(ctx, cfg.PDFCmd, htmlFile, outFile); err != nil {
			return Result{}, err
		}
	}

	log.Info().Str("dir", l.Dir).Str("out", outFile).Bool("cached", cached).Msg("transcript saved")
	return result, nil
}

func resolveFileType(opts Options) (FileType, error) {
	fileType := FileType(strings.ToLower(string(opts.FileType)))
	if fileType == "" {
		fileType = FileTypeHTML
	}
	if strings.HasSuffix(strings.ToLower(opts.OutFile), ".pdf") {
		fileType = FileTypePDF
	}
	switch fileType {
	case FileTypeHTML, FileTypePDF:
		return fileType, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, opts.FileType)
	}
}

func loadCached(path string, useCache bool) ([]byte, bool, error) {
	if !useCache {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached transcript: %w", err)
	}
	return data, true, nil
}

func render(l *parser.Log, cfg *config.Config) ([]byte, error) {
	records, err := l.Records()
	if err != nil {
		return nil, fmt.Errorf("segment log %s: %w", l.Path, err)
	}
	start, err := l.StartTime()
	if err != nil {
		return nil, err
	}

	entries, stats := entry.Resolve(records, entry.Options{LogDir: l.Dir, ImageDir: cfg.ImageDir, Agents: cfg.Agents})
	log.Debug().
		Str("dir", l.Dir).
		Int("records", stats.Total).
		Int("unparsable", stats.Unparsable).
		Int("unclassified", stats.Unclassified).
		Int("entries", stats.Kept).
		Msg("resolved entries")

	var buf bytes.Buffer
	if err := format.WriteHTML(&buf, format.Page{Info: l.Info, StartTime: start, Entries: entries}); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPDF runs "<command> in.html out.pdf". The command may carry its own
// arguments, e.g. "wkhtmltopdf --quiet".
func renderPDF(ctx context.Context, command, htmlFile, outFile string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("no pdf command configured")
	}
	args := append(fields[1:], htmlFile, outFile)
	cmd := exec.CommandContext(ctx, fields[0], args...) // #nosec G204

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w: %s", fields[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
