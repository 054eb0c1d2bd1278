// Package format provides formatting and rendering functions for CwC logs.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cwclog/internal/entry"
	"cwclog/internal/store"
)

// WriteSummaries writes log summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []store.LogSummary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		return writeSummariesJSON(w, items)
	case "jsonl":
		return writeSummariesJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSummariesPlain(w io.Writer, items []store.LogSummary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "start_time\tname\tinterface\timage\trecords\tentries"); err != nil {
			return err
		}
	}

	for _, item := range items {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%d\t%d",
			item.StartTime,
			item.Name,
			item.Info.Interface,
			item.Info.ImageID,
			item.RecordCount,
			item.EntryCount,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesJSON(w io.Writer, items []store.LogSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeSummariesJSONL(w io.Writer, items []store.LogSummary) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}

func writeSummariesTable(w io.Writer, items []store.LogSummary, includeHeader bool) error {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Started", "Log", "Interface", "Image", "Records", "Entries"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.StartTime,
			item.Name,
			item.Info.Interface,
			item.Info.ImageID,
			item.RecordCount,
			item.EntryCount,
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no logs)", "-", "-", 0, 0})
	}

	_ = tw.Render()
	return nil
}

// WriteEntries writes a one-row-per-entry table of classified entries.
func WriteEntries(w io.Writer, entries []*entry.Entry, includeHeader bool) error {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"#", "Time", "Dir", "Partner", "Kind", "Content"})
	}

	for idx, e := range entries {
		tw.AppendRow(table.Row{
			idx + 1,
			e.Timestamp(),
			string(e.Direction()),
			e.Partner(),
			e.Kind().String(),
			escapeNewlines(Summary(e)),
		})
	}

	if len(entries) == 0 {
		tw.AppendRow(table.Row{0, "-", "-", "-", "-", "(no entries)"})
	}

	_ = tw.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	return tw
}
