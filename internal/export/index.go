package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"cwclog/internal/config"
	"cwclog/internal/store"
)

const (
	IndexJSON = "transcripts.json"
	IndexHTML = "index.html"
)

// IndexResult lists the transcripts written by Index, oldest first.
type IndexResult struct {
	Transcripts []string
	Warnings    []error
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>CwC transcripts</title>
</head>
<body>
<h1>CwC transcripts</h1>
<p>Generated {{.Generated}}</p>
<ul>
{{range .Items}}  <li><a href="{{.Href}}">{{.Name}}</a> started at {{.StartTime}} ({{.Interface}})</li>
{{end}}</ul>
</body>
</html>
`))

type indexItem struct {
	Href      string
	Name      string
	StartTime string
	Interface string
}

// Index exports every log directory under root as HTML, using at most jobs
// concurrent workers, then writes transcripts.json and index.html to root.
func Index(ctx context.Context, cfg *config.Config, root string, jobs int) (IndexResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return IndexResult{}, fmt.Errorf("resolve %s: %w", root, err)
	}

	listed, err := store.ListLogs(store.ListOptions{
		Root:     root,
		LogFile:  cfg.LogFile,
		ImageDir: cfg.ImageDir,
		Agents:   cfg.Agents,
	})
	if err != nil {
		return IndexResult{}, err
	}

	// ListLogs already orders summaries by start time; results keep that order.
	results := make([]Result, len(listed.Summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, summary := range listed.Summaries {
		g.Go(func() error {
			res, err := Export(gctx, cfg, summary.Dir, Options{FileType: FileTypeHTML, UseCache: true})
			if err != nil {
				return fmt.Errorf("export %s: %w", summary.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IndexResult{}, err
	}

	out := IndexResult{Warnings: listed.Warnings}
	items := make([]indexItem, 0, len(results))
	for i, res := range results {
		abs, err := filepath.Abs(res.OutFile)
		if err != nil {
			return IndexResult{}, err
		}
		out.Transcripts = append(out.Transcripts, abs)

		href, err := filepath.Rel(root, abs)
		if err != nil {
			href = abs
		}
		summary := listed.Summaries[i]
		items = append(items, indexItem{
			Href:      filepath.ToSlash(href),
			Name:      summary.Name,
			StartTime: summary.StartTime,
			Interface: string(summary.Info.Interface),
		})
	}

	if err := writeJSON(filepath.Join(root, IndexJSON), out.Transcripts); err != nil {
		return IndexResult{}, err
	}
	if err := writeIndexHTML(filepath.Join(root, IndexHTML), items); err != nil {
		return IndexResult{}, err
	}

	log.Info().Str("root", root).Int("transcripts", len(out.Transcripts)).Msg("index written")
	return out, nil
}

func writeJSON(path string, transcripts []string) error {
	if transcripts == nil {
		transcripts = []string{}
	}
	data, err := json.MarshalIndent(transcripts, "", " ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeIndexHTML(path string, items []indexItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		Generated string
		Items     []indexItem
	}{
		Generated: time.Now().Format(time.DateTime),
		Items:     items,
	}
	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
