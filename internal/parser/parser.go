// Package parser splits CwC facilitator logs into raw message records.
package parser

import (
	"regexp"
	"strings"

	"cwclog/internal/model"
)

// sectionPattern matches one <S ...>...</S> or <R ...>...</R> block. RE2 has
// no backreferences, so each direction letter gets its own alternative to
// keep the closing marker paired with the opening one.
var sectionPattern = regexp.MustCompile(`(?s)` +
	`<S\s+T="([\d.:]+)"\s+R="(\w+)">\s*(.*?)\s*</S>` +
	`|` +
	`<R\s+T="([\d.:]+)"\s+S="(\w+)">\s*(.*?)\s*</R>`)

var startTimePattern = regexp.MustCompile(`<LOG\s+TIME="(.*?)"\s+DATE="(.*?)".*?>`)

// Segment extracts every message record from text, in order of appearance.
func Segment(text string) ([]model.RawRecord, error) {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, model.ErrNoSectionsFound
	}

	records := make([]model.RawRecord, 0, len(matches))
	for _, m := range matches {
		// m holds start/end pairs: [whole, S.time, S.partner, S.body, R.time, R.partner, R.body].
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}

		var rec model.RawRecord
		if m[2] >= 0 {
			rec = model.RawRecord{
				Direction: model.DirectionSent,
				Timestamp: group(1),
				Partner:   group(2),
				Text:      strings.TrimSpace(group(3)),
			}
		} else {
			rec = model.RawRecord{
				Direction: model.DirectionReceived,
				Timestamp: group(4),
				Partner:   group(5),
				Text:      strings.TrimSpace(group(6)),
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// StartTime returns the session start from the <LOG TIME=".." DATE=".."> header
// as "TIME DATE".
func StartTime(text string) (string, error) {
	m := startTimePattern.FindStringSubmatch(text)
	if m == nil {
		return "", model.ErrMissingStartTime
	}
	return m[1] + " " + m[2], nil
}
