// Package web holds the embedded gallery page.
package web

import (
	"embed"
	"html/template"
)

//go:embed index.html
var files embed.FS

// Index is the parsed gallery page template.
var Index = template.Must(template.ParseFS(files, "index.html"))
