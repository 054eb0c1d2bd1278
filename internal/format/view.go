package format

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"cwclog/internal/entry"
	"cwclog/internal/model"
)

// Label returns the speaker label shown above an entry.
func Label(e *entry.Entry) string {
	switch e.Kind() {
	case model.KindSysUtterance:
		return "Bob"
	case model.KindUserUtterance:
		return "User"
	case model.KindAddProvenance:
		return "Bob (provenance)"
	case model.KindDisplayImage:
		ref, _ := e.Image()
		return fmt.Sprintf("Bob (%s)", ref.Label)
	case model.KindDisplaySBGN:
		return "Bob (sbgn)"
	case model.KindReset:
		return "Reset"
	case model.KindNone:
		return ""
	}
	return ""
}

// RenderEntryLines returns the formatted body lines for an entry.
func RenderEntryLines(e *entry.Entry, wrapWidth int) []string {
	var body string
	switch e.Kind() {
	case model.KindSysUtterance, model.KindUserUtterance:
		text, _ := e.Text()
		body = wrapBody(strings.TrimSpace(text), wrapWidth)
	case model.KindAddProvenance:
		html, _ := e.ProvenanceHTML()
		body = ProvenanceText(html)
	case model.KindDisplayImage:
		ref, _ := e.Image()
		if ref.Omitted {
			body = fmt.Sprintf("(image not available: %s)", ref.RawPath)
		} else {
			body = fmt.Sprintf("Image: %s", ref.Path)
		}
	case model.KindDisplaySBGN:
		body = "(SBGN diagram displayed)"
	case model.KindReset:
		body = "------------- RESET -----------"
	case model.KindNone:
		return nil
	}
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

// Summary returns a one-line description of an entry for tables.
func Summary(e *entry.Entry) string {
	lines := RenderEntryLines(e, 0)
	return strings.Join(lines, " ")
}

// ProvenanceText converts provenance HTML into markdown for terminal output.
// HTML that cannot be converted is returned as is.
func ProvenanceText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}

func wrapBody(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)

	return strings.Join(lines, "\n")
}

// EntryJSON is the JSON shape of a classified entry.
type EntryJSON struct {
	Direction  model.Direction `json:"direction"`
	Timestamp  string          `json:"timestamp"`
	Partner    string          `json:"partner"`
	Kind       model.Kind      `json:"kind"`
	Label      string          `json:"label"`
	Text       string          `json:"text,omitempty"`
	Provenance string          `json:"provenance_html,omitempty"`
	Image      *entry.ImageRef `json:"image,omitempty"`
}

// ToJSON converts an entry to its JSON shape.
func ToJSON(e *entry.Entry) EntryJSON {
	out := EntryJSON{
		Direction: e.Direction(),
		Timestamp: e.Timestamp(),
		Partner:   e.Partner(),
		Kind:      e.Kind(),
		Label:     Label(e),
	}
	if text, ok := e.Text(); ok {
		out.Text = text
	}
	if html, ok := e.ProvenanceHTML(); ok {
		out.Provenance = html
	}
	if ref, ok := e.Image(); ok {
		out.Image = &ref
	}
	return out
}
