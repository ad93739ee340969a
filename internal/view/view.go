// Package view holds the server-rendered pages of the portal.
package view

import (
	"embed"
	"html/template"
	"strings"
)

// Template names.
const (
	AccessDenied     = "access_denied.html"
	AccessRestricted = "access_restricted.html"
	Login            = "login.html"
	Dashboard        = "dashboard.html"
	ResultsApproval  = "results_approval.html"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

// Templates parses every embedded page.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}

// MustTemplates is Templates for start-up and tests.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
