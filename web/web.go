// Package web holds the embedded HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"title": func(s string) string {
		// Casers keep state; one per call.
		return cases.Title(language.English).String(s)
	},
	"join": strings.Join,
	"href": href,
}

// href passes contact links through the URL sanitizer, allowing tel: which
// html/template would otherwise reject.
func href(s string) template.URL {
	for _, scheme := range []string{"http://", "https://", "mailto:", "tel:"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return template.URL(s)
		}
	}
	return template.URL("#")
}

// Templates parses every template. Each file defines named templates
// ("index", "header", "contact-success", ...) that handlers render by name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static is the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
