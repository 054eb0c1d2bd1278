// Package entry wraps raw log records with their parsed message and kind.
package entry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"cwclog/internal/classify"
	"cwclog/internal/kqml"
	"cwclog/internal/model"
)

const previewRunes = 50

// Options carries the context an entry needs beyond its record.
type Options struct {
	LogDir   string          // directory image paths are resolved against
	ImageDir string          // image anchor segment, default "images"
	Agents   classify.Agents // zero value means classify.DefaultAgents()
}

func (o Options) withDefaults() Options {
	if o.ImageDir == "" {
		o.ImageDir = "images"
	}
	if o.Agents == (classify.Agents{}) {
		o.Agents = classify.DefaultAgents()
	}
	return o
}

// Entry is a raw record together with its lazily parsed message and kind.
// Both are computed at most once and are safe for concurrent use.
type Entry struct {
	Record model.RawRecord
	opts   Options

	parseOnce sync.Once
	parsed    *kqml.Performative
	parseErr  error

	kindOnce sync.Once
	kind     model.Kind

	imageOnce sync.Once
	image     ImageRef
	hasImage  bool
}

// New creates an entry for rec.
func New(rec model.RawRecord, opts Options) *Entry {
	return &Entry{Record: rec, opts: opts.withDefaults()}
}

// Parsed returns the parsed performative, parsing on first call.
func (e *Entry) Parsed() (*kqml.Performative, error) {
	e.parseOnce.Do(func() {
		e.parsed, e.parseErr = kqml.Parse(e.Record.Text)
	})
	return e.parsed, e.parseErr
}

// Kind returns the semantic kind, classifying on first call. Entries whose
// text does not parse are KindNone.
func (e *Entry) Kind() model.Kind {
	e.kindOnce.Do(func() {
		msg, err := e.Parsed()
		if err != nil {
			e.kind = model.KindNone
			return
		}
		e.kind = classify.Classify(e.Record, msg, e.opts.Agents)
	})
	return e.kind
}

// IsKind reports whether the entry has kind k. k must be one of model.Kinds().
func (e *Entry) IsKind(k model.Kind) (bool, error) {
	if !k.Valid() {
		return false, &model.InvalidKindError{Label: k.String()}
	}
	return e.Kind() == k, nil
}

// IsKindLabel is IsKind for a label such as "sys_utterance".
func (e *Entry) IsKindLabel(label string) (bool, error) {
	k, err := model.ParseKind(label)
	if err != nil {
		return false, err
	}
	return e.IsKind(k)
}

// Direction, Timestamp and Partner expose the record fields.
func (e *Entry) Direction() model.Direction { return e.Record.Direction }
func (e *Entry) Timestamp() string          { return e.Record.Timestamp }
func (e *Entry) Partner() string            { return e.Record.Partner }

// String returns a short diagnostic form with a truncated message preview.
func (e *Entry) String() string {
	return fmt.Sprintf("<Entry %s %s %s: %q>",
		e.Record.Direction, e.Record.Direction.Preposition(), e.Record.Partner, Preview(e.Record.Text, previewRunes))
}

// Preview shortens text to at most n runes, ending in "..." when cut.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 3 {
		return strings.Repeat(".", n)
	}
	return string(runes[:n-3]) + "..."
}

// Stats counts what happened to the records of one log.
type Stats struct {
	Total        int
	Unparsable   int
	Unclassified int
	Kept         int
}

// Resolve classifies records in order and keeps those with a known kind.
// Unparsable records are logged at debug level and skipped.
func Resolve(records []model.RawRecord, opts Options) ([]*Entry, Stats) {
	stats := Stats{Total: len(records)}
	entries := make([]*Entry, 0, len(records))

	for _, rec := range records {
		e := New(rec, opts)
		if _, err := e.Parsed(); err != nil {
			stats.Unparsable++
			log.Debug().Err(err).Str("entry", e.String()).Msg("failed to get content")
			continue
		}
		if e.Kind() == model.KindNone {
			stats.Unclassified++
			continue
		}
		entries = append(entries, e)
	}

	stats.Kept = len(entries)
	log.Debug().
		Int("total", stats.Total).
		Int("unparsable", stats.Unparsable).
		Int("kept", stats.Kept).
		Msg("filtered to io entries")
	return entries, stats
}
