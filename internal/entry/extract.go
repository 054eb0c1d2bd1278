package entry

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"cwclog/internal/kqml"
	"cwclog/internal/model"
)

// ImageRef is the image carried by a display-image entry.
type ImageRef struct {
	Path    string `json:"path,omitempty"` // absolute path under the log dir, empty when omitted
	RawPath string `json:"raw_path"`       // path as written in the message
	Type    string `json:"type"`
	Label   string `json:"label"`
	Omitted bool   `json:"omitted"`
}

func (e *Entry) content() (*kqml.Performative, bool) {
	msg, err := e.Parsed()
	if err != nil {
		return nil, false
	}
	return msg.Get("content")
}

// Text returns the spoken text of a system utterance or the typed text of
// a user utterance.
func (e *Entry) Text() (string, bool) {
	content, ok := e.content()
	if !ok {
		return "", false
	}
	switch e.Kind() {
	case model.KindSysUtterance:
		return content.Gets("what")
	case model.KindUserUtterance:
		return content.Gets("text")
	default:
		return "", false
	}
}

// ProvenanceHTML returns the HTML of a provenance entry with <hr> rules removed.
func (e *Entry) ProvenanceHTML() (string, bool) {
	if e.Kind() != model.KindAddProvenance {
		return "", false
	}
	content, ok := e.content()
	if !ok {
		return "", false
	}
	html, ok := content.Gets("html")
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(html, "<hr>", ""), true
}

// Image returns the image reference of a display-image entry. The path is
// re-rooted at the image anchor segment inside the log directory; when the
// anchor is missing the reference is marked omitted and a warning is logged.
func (e *Entry) Image() (ImageRef, bool) {
	if e.Kind() != model.KindDisplayImage {
		return ImageRef{}, false
	}
	e.imageOnce.Do(func() {
		e.image, e.hasImage = e.resolveImage()
	})
	return e.image, e.hasImage
}

func (e *Entry) resolveImage() (ImageRef, bool) {
	content, ok := e.content()
	if !ok {
		return ImageRef{}, false
	}

	ref := ImageRef{}
	ref.RawPath, _ = content.Gets("path")
	ref.Type, _ = content.Gets("type")
	ref.Label = ref.Type
	if ref.Type == "simulation" && e.Record.Partner == e.opts.Agents.PathDiagram {
		ref.Label = "path_diagram"
	}

	rel, ok := anchoredPath(ref.RawPath, e.opts.ImageDir)
	if !ok {
		log.Warn().Str("path", ref.RawPath).Msg("image not shown: its path lacks correct structure")
		ref.Omitted = true
		return ref, true
	}
	ref.Path = filepath.Join(absDir(e.opts.LogDir), rel)
	return ref, true
}

// anchoredPath returns the part of p starting at the first segment equal to
// anchor. Both '/' and '\' separate segments.
func anchoredPath(p, anchor string) (string, bool) {
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	for i, seg := range segments {
		if seg == anchor {
			return filepath.Join(segments[i:]...), true
		}
	}
	return "", false
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
