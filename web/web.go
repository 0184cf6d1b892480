// Package web holds the HTML templates of the site.
package web

import (
	"embed"
	"html/template"
	"strconv"
	"strings"
	"time"
)

//go:embed templates
var files embed.FS

// Templates parses every page and partial. media turns a stored image
// identifier into its public URL.
func Templates(media func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"media": media,
		"idstr": func(id uint64) string { return strconv.FormatUint(id, 10) },
		"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
		"linebreaks": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
	}
	return template.New("").Funcs(funcs).ParseFS(files,
		"templates/*.html",
		"templates/*/*.html",
	)
}
