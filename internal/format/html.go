package format

import (
	"html/template"
	"io"

	"cwclog/internal/entry"
	"cwclog/internal/model"
	"cwclog/internal/parser"
)

// Page is everything needed to render one HTML transcript.
type Page struct {
	Info      parser.DirInfo
	StartTime string
	Entries   []*entry.Entry
}

type htmlRow struct {
	Kind      string
	Reset     bool
	Name      string
	NameClass string
	MsgClass  string
	Color     string
	Time      string
	Partner   string
	Body      template.HTML
}

const (
	bobColor  = "#2E64FE"
	userColor = "#A5DF00"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Dialogue transcript</title>
<style>
body { font-family: sans-serif; }
.row { display: flex; }
.meta { color: #BDBDBD; }
.name { color: #FFFFFF; padding: 0 4px; }
.usr_name, .usr_msg { margin-left: auto; }
img { max-width: 100%; }
</style>
</head>
<body>
<div class="container">
<div class="row start_time">
  <div class="col-sm">
    Dialogue running {{.Info.ContainerName}} container with image {{.Info.ImageID}} using
    the {{.Info.Interface}} interface started at: {{.StartTime}}
  </div>
</div>
{{range .Rows}}{{if .Reset}}<hr width="75%" size="3" noshade>
{{else}}<div class="row {{.Kind}}" style="margin-top: 15px">
  <div class="col-sm {{.NameClass}}">
    <span class="name" style="background-color:{{.Color}}">{{.Name}}:</span>&nbsp;<a class="meta">at {{.Time}} from the {{.Partner}}</a>
  </div>
</div>
<div class="row {{.Kind}}" style="margin-bottom: 15px">
  <div class="col-sm {{.MsgClass}}">{{.Body}}</div>
</div>
{{end}}{{end}}</div>
</body>
</html>
`))

// WriteHTML renders page as a standalone HTML document.
func WriteHTML(w io.Writer, page Page) error {
	rows := make([]htmlRow, 0, len(page.Entries))
	for _, e := range page.Entries {
		if row, ok := buildRow(e); ok {
			rows = append(rows, row)
		}
	}
	return pageTemplate.Execute(w, struct {
		Page
		Rows []htmlRow
	}{page, rows})
}

func buildRow(e *entry.Entry) (htmlRow, bool) {
	row := htmlRow{
		Kind:      e.Kind().String(),
		Name:      Label(e),
		NameClass: "sys_name",
		Color:     bobColor,
		Time:      e.Timestamp(),
		Partner:   e.Partner(),
	}

	switch e.Kind() {
	case model.KindSysUtterance:
		text, _ := e.Text()
		row.MsgClass = "sys_msg"
		row.Body = template.HTML(template.HTMLEscapeString(text))
	case model.KindUserUtterance:
		text, _ := e.Text()
		row.NameClass, row.MsgClass, row.Color = "usr_name", "usr_msg", userColor
		row.Body = template.HTML(template.HTMLEscapeString(text))
	case model.KindAddProvenance:
		html, _ := e.ProvenanceHTML()
		row.MsgClass = "prov_html"
		row.Body = template.HTML(html) //nolint:gosec // provenance is agent-generated HTML meant to be embedded
	case model.KindDisplayImage:
		ref, _ := e.Image()
		row.MsgClass = "sys_image"
		src := template.HTMLEscapeString(ref.Path)
		row.Body = template.HTML(`<img src="` + src + `" alt="Image ` + src + ` Not Available">`) //nolint:gosec // path escaped above
	case model.KindDisplaySBGN:
		row.MsgClass = "sys_msg"
		row.Body = template.HTML("<em>SBGN diagram displayed</em>")
	case model.KindReset:
		row.Reset = true
	case model.KindNone:
		return htmlRow{}, false
	}
	return row, true
}
